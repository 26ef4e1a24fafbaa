package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solar-dispatch/internal/api/models"
	"solar-dispatch/internal/config"
	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/meterdata"
	"solar-dispatch/internal/model"
	"solar-dispatch/internal/tariff"
	"solar-dispatch/internal/timeseries"
)

// DispatchHandler runs the LP or greedy dispatch solver over a meter file
// and solar reference file named in the request.
type DispatchHandler struct{}

// NewDispatchHandler builds a DispatchHandler.
func NewDispatchHandler() *DispatchHandler {
	return &DispatchHandler{}
}

// RunDispatch handles POST /api/v1/dispatch.
func (h *DispatchHandler) RunDispatch(c *gin.Context) {
	var req models.DispatchRequest
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

	site := model.SiteSeries{Index: load.Index, LoadKWh: load.ValuesKWh, SolarKWh: make([]float64, load.Len())}
	if req.Solar.ReferenceFile != "" && req.Solar.SizeKW > 0 {
		ref, err := meterdata.LoadSolarReferenceCSV(req.Solar.ReferenceFile)
		if err != nil {
			writeError(c, http.StatusBadRequest, "SOLAR_INGESTION_FAILED", err.Error())
			return
		}
		site, err = timeseries.BuildSiteSeries(load, ref, req.Solar.SizeKW)
		if err != nil {
			writeError(c, http.StatusBadRequest, "SITE_SERIES_FAILED", err.Error())
			return
		}
	}

	tariffTable, err := buildTariffTable(site.Index, req.Tariff)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TARIFF", err.Error())
		return
	}

	batt := model.BatteryParams{
		EnergyCapacityKWh:     req.Battery.EnergyCapacityKWh,
		PowerCapacityKW:       req.Battery.PowerCapacityKW,
		RoundTripEfficiency:   req.Battery.RoundTripEfficiency,
		BackupReserveFraction: req.Battery.BackupReserveFraction,
	}

	mode := req.Mode
	if mode == "" {
		mode = "lp"
	}

	var sched model.Schedule
	switch mode {
	case "lp":
		sched, err = dispatch.SolveLP(site, tariffTable, batt)
	case "greedy":
		sched, err = dispatch.Greedy(site, batt)
	default:
		writeError(c, http.StatusBadRequest, "INVALID_MODE", "mode must be \"lp\" or \"greedy\"")
		return
	}
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	cost, err := dispatch.DailyCostFromSchedule(sched, tariffTable)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildDispatchResponse(mode, sched, cost))
}

func buildDispatchResponse(mode string, sched model.Schedule, cost float64) models.DispatchResponse {
	rows := make([]models.DispatchRow, len(sched.Rows))
	var charged, discharged float64
	for i, r := range sched.Rows {
		rows[i] = models.DispatchRow{
			Timestamp:      r.Timestamp,
			Action:         string(r.Action()),
			BatteryPowerKW: r.BatteryPowerKW,
			GridPowerKW:    r.GridPowerKW,
			EnergyKWh:      r.EnergyKWh,
		}
		if r.BatteryPowerKW < 0 {
			charged += -r.BatteryPowerKW
		} else if r.BatteryPowerKW > 0 {
			discharged += r.BatteryPowerKW
		}
	}

	var window models.TimeWindow
	if n := len(sched.Rows); n > 0 {
		window = models.TimeWindow{Start: sched.Rows[0].Timestamp, End: sched.Rows[n-1].Timestamp}
	}

	return models.DispatchResponse{
		Mode: mode,
		Summary: models.DispatchSummary{
			TotalIntervals:      len(sched.Rows),
			Window:              window,
			DailyCost:           cost,
			EnergyChargedKWh:    charged,
			EnergyDischargedKWh: discharged,
		},
		Rows: rows,
	}
}

// writeDispatchError maps the core's sentinel error kinds to HTTP status.
func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInputMisalignment), errors.Is(err, model.ErrInvalidParameters):
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, model.ErrInfeasibleProblem):
		writeError(c, http.StatusUnprocessableEntity, "INFEASIBLE", err.Error())
	case errors.Is(err, model.ErrNumericFailure):
		writeError(c, http.StatusInternalServerError, "NUMERIC_FAILURE", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: models.ErrorDetail{Code: code, Message: message}})
}

// buildTariffTable delegates to config.TariffConfig's schedule builders so
// the API and the YAML config path share one definition of "zero field
// falls back to the domain default".
func buildTariffTable(index []time.Time, cfg models.TariffConfig) (model.TariffTable, error) {
	tc := config.TariffConfig{
		BuyBase: cfg.BuyBase, BuyPeak: cfg.BuyPeak,
		BuyWindowStart: cfg.BuyWindowStart, BuyWindowEnd: cfg.BuyWindowEnd,
		SellBase: cfg.SellBase, SellPeak: cfg.SellPeak,
		SellWindowStart: cfg.SellWindowStart, SellWindowEnd: cfg.SellWindowEnd,
	}
	buy, err := tc.BuySchedule()
	if err != nil {
		return model.TariffTable{}, err
	}
	sell, err := tc.SellSchedule()
	if err != nil {
		return model.TariffTable{}, err
	}
	return tariff.Build(index, buy, sell), nil
}

// resolveTimeZone parses an IANA time zone name, defaulting to UTC.
func resolveTimeZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
