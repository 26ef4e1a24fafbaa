package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"solar-dispatch/internal/api/models"
	"solar-dispatch/internal/config"
)

// BatteryHandler serves the catalog of battery presets shipped as YAML
// files under its configured directory.
type BatteryHandler struct {
	batteryDir string
}

// NewBatteryHandler builds a BatteryHandler rooted at BATTERY_DIR, falling
// back to ./examples/batteries relative to the working directory.
func NewBatteryHandler() *BatteryHandler {
	dir := os.Getenv("BATTERY_DIR")
	if dir == "" {
		dir = "./examples/batteries"
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &BatteryHandler{batteryDir: dir}
}

// GetBatteryDir returns the battery directory path.
func (h *BatteryHandler) GetBatteryDir() string {
	return h.batteryDir
}

// ListBatteries handles GET /api/v1/batteries.
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.batteryDir)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.batteryDir, entry.Name())
		info, err := h.loadBatteryInfo(path, entry.Name())
		if err != nil {
			continue // skip invalid presets
		}
		batteries = append(batteries, *info)
	}

	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

func (h *BatteryHandler) loadBatteryInfo(path, filename string) (*models.BatteryInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Battery config.BatteryConfig `yaml:"battery"`
	}
	if err := yaml.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}

	id := strings.TrimSuffix(filename, ".yaml")
	name := wrapper.Battery.Name
	if name == "" {
		name = id
	}

	return &models.BatteryInfo{
		ID:   id,
		Name: name,
		File: path,
		Specs: models.BatterySpecs{
			EnergyCapacityKWh:     wrapper.Battery.EnergyCapacityKWh,
			PowerCapacityKW:       wrapper.Battery.PowerCapacityKW,
			RoundTripEfficiency:   wrapper.Battery.RoundTripEfficiency,
			BackupReserveFraction: wrapper.Battery.BackupReserveFraction,
		},
	}, nil
}
