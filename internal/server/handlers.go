package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"goldwatch/internal/csvio"
	"goldwatch/internal/goldtraders"
	"goldwatch/internal/logger"
	"goldwatch/internal/models"
	"goldwatch/internal/monitor"
	"goldwatch/internal/pricing"
	"goldwatch/internal/storage"
)

// Handlers holds the collaborators behind the HTTP API plus the price-source
// selection, which is process state: switching it recomputes every derived
// figure from already-held quotes without touching the network.
type Handlers struct {
	store *storage.Storage
	mon   *monitor.Monitor
	gold  *goldtraders.Client

	mu          sync.RWMutex
	source      models.PriceSource
	manualPrice float64
}

// NewHandlers wires the API handlers. The initial source is the official ask.
func NewHandlers(store *storage.Storage, mon *monitor.Monitor, gold *goldtraders.Client) *Handlers {
	return &Handlers{
		store:  store,
		mon:    mon,
		gold:   gold,
		source: models.SourceThaiOfficial,
	}
}

// Register attaches all routes.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/thai-gold", h.thaiGold)
		api.GET("/spot", h.spot)
		api.GET("/dashboard", h.dashboard)

		api.GET("/source", h.getSource)
		api.PUT("/source", h.putSource)

		api.GET("/records", h.listRecords)
		api.POST("/records", h.createRecord)
		api.PUT("/records/:id", h.updateRecord)
		api.DELETE("/records/:id", h.deleteRecord)
		api.DELETE("/records", h.clearRecords)

		api.GET("/records/export", h.exportRecords)
		api.POST("/records/import", h.importRecords)
	}
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

// thaiGold performs a live extraction from the association page. A fetched
// page that yields no plausible quote is 503 parse_failed; a transport
// failure is 500. A successful fetch also refreshes the monitor's held quote.
func (h *Handlers) thaiGold(c *gin.Context) {
	quote, err := h.gold.FetchQuote(c.Request.Context())
	if err != nil {
		if errors.Is(err, goldtraders.ErrParseFailed) {
			logger.Warn("Live official quote extraction failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "reason": "parse_failed"})
			return
		}
		logger.Error("Live official quote fetch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	h.mon.SetOfficial(quote)

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"source":   "goldtraders.or.th",
		"type":     "thai_official_96_5",
		"bid":      quote.Bid,
		"ask":      quote.Ask,
		"updated":  quote.Updated,
		"currency": "THB/baht-gold",
	})
}

// spot serves the held spot price with its baht-weight derivations. It never
// hits the upstream; the poller owns fetching.
func (h *Handlers) spot(c *gin.Context) {
	perOunce, at, stale := h.mon.SpotPerOunce()
	perBaht := pricing.SpotPerBaht(perOunce)

	c.JSON(http.StatusOK, gin.H{
		"per_ounce":  perOunce,
		"per_baht":   perBaht,
		"thai965":    pricing.Retail965(perBaht),
		"fetched_at": formatTime(at),
		"stale":      stale,
	})
}

type recordView struct {
	models.PurchaseRecord
	Cost   float64 `json:"cost"`
	Profit float64 `json:"profit"`
}

// dashboard returns everything the dashboard renders in one response: both
// held quotes with staleness, the active source and its current price, all
// records with per-record profit, the aggregate profit, and the chart series.
// Derived entirely from held state; no upstream fetch.
func (h *Handlers) dashboard(c *gin.Context) {
	h.mu.RLock()
	source, manual := h.source, h.manualPrice
	h.mu.RUnlock()

	official, officialAt, officialStale := h.mon.Official()
	spotPerOunce, spotAt, spotStale := h.mon.SpotPerOunce()
	current := pricing.CurrentPrice(source, official.Ask, spotPerOunce, manual)

	records := h.store.List()
	views := make([]recordView, len(records))
	chart := make([]gin.H, len(records))
	for i, r := range records {
		views[i] = recordView{
			PurchaseRecord: r,
			Cost:           r.Cost(),
			Profit:         pricing.Profit(r, current),
		}
		chart[i] = gin.H{"date": r.Date, "buy": r.Price, "market": current}
	}

	spotPerBaht := pricing.SpotPerBaht(spotPerOunce)
	c.JSON(http.StatusOK, gin.H{
		"source":        source,
		"manual_price":  manual,
		"current_price": current,
		"official": gin.H{
			"bid":        official.Bid,
			"ask":        official.Ask,
			"updated":    official.Updated,
			"fetched_at": formatTime(officialAt),
			"stale":      officialStale,
		},
		"spot": gin.H{
			"per_ounce":  spotPerOunce,
			"per_baht":   spotPerBaht,
			"thai965":    pricing.Retail965(spotPerBaht),
			"fetched_at": formatTime(spotAt),
			"stale":      spotStale,
		},
		"records":      views,
		"record_count": len(records),
		"total_profit": pricing.TotalProfit(records, current),
		"chart":        chart,
	})
}

func (h *Handlers) getSource(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"source": h.source, "manual_price": h.manualPrice})
}

type sourceRequest struct {
	Source      string   `json:"source"`
	ManualPrice *float64 `json:"manual_price"`
}

// putSource switches the active price source. Selection is process state, not
// persisted; a restart falls back to the official ask.
func (h *Handlers) putSource(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	source, err := models.ParsePriceSource(req.Source)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.source = source
	if req.ManualPrice != nil {
		h.manualPrice = *req.ManualPrice
	}
	manual := h.manualPrice
	h.mu.Unlock()

	logger.Info("Price source switched to %s", source)
	c.JSON(http.StatusOK, gin.H{"source": source, "manual_price": manual})
}

func (h *Handlers) listRecords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": h.store.List()})
}

type recordRequest struct {
	Date   string   `json:"date"`
	Price  float64  `json:"price"`
	Weight *float64 `json:"weight"`
	Block  float64  `json:"block"`
	Shop   string   `json:"shop"`
}

func (r *recordRequest) toRecord() models.PurchaseRecord {
	weight := 1.0
	if r.Weight != nil {
		weight = *r.Weight
	}
	return models.PurchaseRecord{
		Date:   r.Date,
		Price:  r.Price,
		Weight: weight,
		Block:  r.Block,
		Shop:   r.Shop,
	}
}

func (h *Handlers) createRecord(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.store.Add(req.toRecord())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handlers) updateRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.store.Update(id, req.toRecord())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handlers) deleteRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handlers) clearRecords(c *gin.Context) {
	h.store.Clear()
	c.JSON(http.StatusOK, gin.H{"records": []models.PurchaseRecord{}})
}

func (h *Handlers) exportRecords(c *gin.Context) {
	csv := csvio.Export(h.store.List())
	c.Header("Content-Disposition", `attachment; filename="gold-records.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// importRecords replaces the whole collection from uploaded CSV, taken from
// a multipart "file" part or the raw request body.
func (h *Handlers) importRecords(c *gin.Context) {
	data, err := readImportBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := csvio.Import(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	replaced := h.store.ReplaceAll(records)
	logger.Info("Imported %d records from CSV", len(replaced))
	c.JSON(http.StatusOK, gin.H{"imported": len(replaced), "records": replaced})
}

func readImportBody(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request.Body)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
