package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/fraudscope/internal/dataset"
	"github.com/mbd888/fraudscope/internal/inference"
	"github.com/mbd888/fraudscope/internal/logging"
	"github.com/mbd888/fraudscope/internal/metrics"
	"github.com/mbd888/fraudscope/internal/realtime"
	"github.com/mbd888/fraudscope/internal/report"
	"github.com/mbd888/fraudscope/internal/scoring"
	"github.com/mbd888/fraudscope/internal/traces"
	"github.com/mbd888/fraudscope/internal/txdata"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// GET /api/v1/raw/files
func (s *Server) listRawFilesHandler(c *gin.Context) {
	names, err := txdata.ListRawFiles(s.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, gin.H{"files": []string{}})
			return
		}
		s.internalError(c, "list raw files", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"files": names})
}

// GET /api/v1/raw/files/:name
func (s *Server) rawFileHandler(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) || !strings.HasSuffix(name, txdata.SnapshotExt) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_name",
			"message": "file name must be a bare *.csv snapshot name",
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "snapshot.load", traces.Snapshot(name))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	txs, err := txdata.LoadFile(filepath.Join(s.cfg.DataDir, name), true)
	if err != nil {
		var schemaErr *inference.SchemaError
		switch {
		case os.IsNotExist(err):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": fmt.Sprintf("snapshot %s does not exist", name),
			})
		case errors.As(err, &schemaErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "schema_error",
				"message": schemaErr.Error(),
				"missing": schemaErr.Missing,
			})
		default:
			s.internalError(c, "load snapshot", err)
		}
		return
	}

	limit, offset := pagination(c)
	total := len(txs)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"file":   name,
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"rows":   txs[offset:end],
	})
}

// GET /api/v1/features
func (s *Server) featuresHandler(c *gin.Context) {
	limit, offset := pagination(c)

	rows, err := s.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.datasetError(c, "list features", err)
		return
	}
	total, err := s.store.Count(c.Request.Context())
	if err != nil {
		s.datasetError(c, "count features", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"rows":   rows,
	})
}

// GET /api/v1/features/summary
func (s *Server) featureSummaryHandler(c *gin.Context) {
	summary, err := s.store.Summary(c.Request.Context())
	if err != nil {
		s.datasetError(c, "summarize features", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// predictRequest carries the nine model inputs for a single transaction.
// TX_COUNT is a user-supplied override; it is not recomputed server-side.
type predictRequest struct {
	TXAmount      float64 `json:"TX_AMOUNT"`
	TXTimeSeconds int64   `json:"TX_TIME_SECONDS"`
	TXTimeDays    int     `json:"TX_TIME_DAYS"`
	TXHour        int     `json:"TX_HOUR" binding:"min=0,max=23"`
	TXWeekday     int     `json:"TX_WEEKDAY" binding:"min=0,max=6"`
	TXMonth       int     `json:"TX_MONTH" binding:"min=1,max=12"`
	IsWeekend     int     `json:"IS_WEEKEND" binding:"min=0,max=1"`
	TXAmountBin   string  `json:"TX_AMOUNT_BIN"`
	TXCount       int     `json:"TX_COUNT" binding:"min=0"`
}

func (r *predictRequest) row() map[string]string {
	return map[string]string{
		"TX_AMOUNT":       strconv.FormatFloat(r.TXAmount, 'f', -1, 64),
		"TX_TIME_SECONDS": strconv.FormatInt(r.TXTimeSeconds, 10),
		"TX_TIME_DAYS":    strconv.Itoa(r.TXTimeDays),
		"TX_HOUR":         strconv.Itoa(r.TXHour),
		"TX_WEEKDAY":      strconv.Itoa(r.TXWeekday),
		"TX_MONTH":        strconv.Itoa(r.TXMonth),
		"IS_WEEKEND":      strconv.Itoa(r.IsWeekend),
		"TX_AMOUNT_BIN":   r.TXAmountBin,
		"TX_COUNT":        strconv.Itoa(r.TXCount),
	}
}

// POST /api/v1/predict
func (s *Server) predictHandler(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "scoring.single")
	defer span.End()

	row := req.row()
	pred, err := scoring.ScoreOne(ctx, row, s.artifact.Model, s.artifact.Encoders)
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues("single", "error").Inc()
		s.scoringError(c, err)
		return
	}
	metrics.ScoringRequestsTotal.WithLabelValues("single", "ok").Inc()
	metrics.FraudPredictionsTotal.WithLabelValues(outcomeLabel(pred)).Inc()

	if c.Query("format") == "pdf" {
		c.Header("Content-Disposition", attachment("fraud_prediction", "pdf"))
		c.Header("Content-Type", "application/pdf")
		if err := report.SinglePDF(c.Writer, row, pred); err != nil {
			logging.L(ctx).Error("render single pdf", "error", err)
		}
		return
	}
	c.JSON(http.StatusOK, pred)
}

// GET /api/v1/score/template
func (s *Server) templateHandler(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="batch_scoring_template.csv"`)
	c.Header("Content-Type", "text/csv")
	if err := report.WriteTemplateCSV(c.Writer); err != nil {
		logging.L(c.Request.Context()).Error("write template csv", "error", err)
	}
}

// POST /api/v1/score/batch
func (s *Server) scoreBatchHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_file",
			"message": "multipart field 'file' with a CSV upload is required",
		})
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.internalError(c, "open upload", err)
		return
	}
	defer f.Close()

	batch, err := scoring.ReadBatchCSV(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_csv",
			"message": err.Error(),
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "scoring.batch",
		traces.BatchSize(len(batch.Rows)))
	defer span.End()

	s.hub.Broadcast(realtime.EventBatchStarted, gin.H{
		"file": fh.Filename,
		"rows": len(batch.Rows),
	})

	start := time.Now()
	res, err := scoring.ScoreBatch(ctx, batch, s.artifact.Model, s.artifact.Encoders)
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues("batch", "error").Inc()
		s.hub.Broadcast(realtime.EventBatchFailed, gin.H{
			"file":  fh.Filename,
			"error": err.Error(),
		})
		s.scoringError(c, err)
		return
	}

	fraud, notFraud := scoring.ClassCounts(res.Results)
	missingRows := 0
	if res.Warning != nil {
		missingRows = res.Warning.Rows
	}
	metrics.ScoringRequestsTotal.WithLabelValues("batch", "ok").Inc()
	metrics.ObserveBatch(len(res.Results), fraud, notFraud, missingRows, time.Since(start))
	span.SetAttributes(traces.FraudCount(fraud))

	summary := scoring.Summarize(res.Results)
	s.hub.Broadcast(realtime.EventBatchScored, gin.H{
		"file":    fh.Filename,
		"summary": summary,
	})

	switch c.Query("format") {
	case "csv":
		c.Header("Content-Disposition", attachment("fraud_batch_results", "csv"))
		c.Header("Content-Type", "text/csv")
		if err := report.WriteResultsCSV(c.Writer, res.Results); err != nil {
			logging.L(ctx).Error("write results csv", "error", err)
		}
	case "pdf":
		c.Header("Content-Disposition", attachment("fraud_batch_report", "pdf"))
		c.Header("Content-Type", "application/pdf")
		if err := report.BatchPDF(c.Writer, res.Results, time.Now()); err != nil {
			logging.L(ctx).Error("render batch pdf", "error", err)
		}
	default:
		topN := s.cfg.TopSuspiciousN
		if v, err := strconv.Atoi(c.Query("top")); err == nil && v > 0 {
			topN = v
		}
		c.JSON(http.StatusOK, gin.H{
			"summary":        summary,
			"results":        res.Results,
			"topSuspicious":  scoring.TopSuspicious(res.Results, topN),
			"amountRanges":   scoring.AmountRanges(res.Results),
			"customerFrauds": scoring.CustomerFraudCounts(res.Results, topN),
			"warning":        res.Warning,
		})
	}
}

// scoringError maps pipeline failures onto HTTP statuses: schema problems
// are the caller's to fix (400), a model failure on valid input is 422.
func (s *Server) scoringError(c *gin.Context, err error) {
	var schemaErr *inference.SchemaError
	var modelErr *scoring.ModelInferenceError
	switch {
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "schema_error",
			"message": schemaErr.Error(),
			"missing": schemaErr.Missing,
		})
	case errors.As(err, &modelErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "model_inference_failed",
			"message": modelErr.Error(),
		})
	default:
		s.internalError(c, "score", err)
	}
}

func (s *Server) datasetError(c *gin.Context, op string, err error) {
	if errors.Is(err, dataset.ErrEmptyDataset) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "no_data",
			"message": "no engineered dataset found; run the derive command first",
		})
		return
	}
	s.internalError(c, op, err)
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	logging.L(c.Request.Context()).Error(op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}

func outcomeLabel(p *scoring.Prediction) string {
	if p.PredictionLabel == scoring.LabelFraud {
		return "fraud"
	}
	return "not_fraud"
}

func attachment(stem, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s_%s.%s"`,
		stem, time.Now().Format("20060102_150405"), ext)
}
