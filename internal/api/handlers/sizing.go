package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solar-dispatch/internal/api/models"
	"solar-dispatch/internal/meterdata"
	"solar-dispatch/internal/model"
	"solar-dispatch/internal/sizing"
	"solar-dispatch/internal/timeseries"
)

// buildUnscaledSite aligns ref onto load's index at a nominal 1kW so the
// resulting SolarKWh column is directly usable as the sizing sweep's
// per-hour, per-installed-kW coefficient series.
func buildUnscaledSite(load model.LoadSeries, ref timeseries.SolarReference) (model.SiteSeries, error) {
	return timeseries.BuildSiteSeries(load, ref, 1.0)
}

// SizingHandler runs the endogenous sizing sweep over a meter file and
// solar reference file named in the request.
type SizingHandler struct{}

// NewSizingHandler builds a SizingHandler.
func NewSizingHandler() *SizingHandler {
	return &SizingHandler{}
}

// RunSizing handles POST /api/v1/sizing.
func (h *SizingHandler) RunSizing(c *gin.Context) {
	var req models.SizingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	loc, err := resolveTimeZone(req.TimeZone)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TIME_ZONE", err.Error())
		return
	}

	load, err := meterdata.LoadCSV(req.MeterFile, meterdata.Options{TimeZone: loc})
	if err != nil {
		writeError(c, http.StatusBadRequest, "METER_INGESTION_FAILED", err.Error())
		return
	}

	ref, err := meterdata.LoadSolarReferenceCSV(req.SolarReferenceFile)
	if err != nil {
		writeError(c, http.StatusBadRequest, "SOLAR_INGESTION_FAILED", err.Error())
		return
	}

	// Sizing optimizes the solar fraction itself, so align the reference
	// at a nominal 1kW to get a per-hour per-kW coefficient series.
	site, err := buildUnscaledSite(load, ref)
	if err != nil {
		writeError(c, http.StatusBadRequest, "SITE_SERIES_FAILED", err.Error())
		return
	}

	rtEfficiency := req.RoundTripEfficiency
	if rtEfficiency == 0 {
		rtEfficiency = 0.9
	}

	tariffTable, err := buildTariffTable(site.Index, req.Tariff)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TARIFF", err.Error())
		return
	}

	candidates, err := sizing.Sweep(
		site.Index, site.LoadKWh, site.SolarKWh, tariffTable,
		rtEfficiency, req.BackupReserveFraction,
		sizing.BlockSpec{EnergyKWh: req.BlockEnergyKWh, PowerKW: req.BlockPowerKW},
		req.MaxBlocks, req.SolarUpperBoundKW,
		sizing.EquipmentCost{PerBatteryBlock: req.PerBatteryBlockCost, PerSolarKW: req.PerSolarKWCost},
	)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildSizingResponse(candidates))
}

func buildSizingResponse(candidates []sizing.Candidate) models.SizingResponse {
	out := make([]models.SizingCandidate, len(candidates))
	best := 0
	for i, cand := range candidates {
		out[i] = models.SizingCandidate{
			BatteryBlocks: cand.BatteryBlocks,
			SolarSizeKW:   cand.SolarSizeKW,
			DispatchCost:  cand.DispatchCost,
			EquipmentCost: cand.EquipmentCost,
			TotalCost:     cand.TotalCost,
		}
		if cand.TotalCost < candidates[best].TotalCost {
			best = i
		}
	}
	resp := models.SizingResponse{Candidates: out}
	if len(out) > 0 {
		resp.Best = out[best]
	}
	return resp
}
