package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trade-chatbot/server/internal/analytics"
	"github.com/trade-chatbot/server/internal/conversation"
	errx "github.com/trade-chatbot/server/internal/core/error"
	"github.com/trade-chatbot/server/internal/intent"
	"github.com/trade-chatbot/server/internal/llm"
	"github.com/trade-chatbot/server/internal/llm/prompts"
	"github.com/trade-chatbot/server/internal/query"
	"github.com/trade-chatbot/server/internal/session"
	logx "github.com/trade-chatbot/server/pkg/logger"
)

// Handler wires the chat pipeline: extract intent, merge session state,
// clarify or query, normalize, narrate.
type Handler struct {
	llm      LLM
	runner   query.Runner
	sessions *session.Manager
	qlog     *analytics.QueryLogger
	validate *validator.Validate
}

func NewHandler(model LLM, runner query.Runner, sessions *session.Manager, qlog *analytics.QueryLogger) *Handler {
	v := validator.New()
	intent.RegisterValidations(v)
	return &Handler{
		llm:      model,
		runner:   runner,
		sessions: sessions,
		qlog:     qlog,
		validate: v,
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) HandleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	if err := h.sessions.Clear(r.Context(), sessionID); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to clear session")
		http.Error(w, errx.SystemErrorMessage, errx.StatusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// analyticKeywords gate the smalltalk path: a message containing none of
// these and no digits is answered conversationally without touching the
// database.
var analyticKeywords = []string{
	"экспорт", "импорт", "дүн", "хэмжээ", "тонн", "usd", "ам.доллар",
	"өмнөх", "мөн үе", "өссөн", "сар", "он", "дундаж", "yoy",
}

func looksAnalytic(q string) bool {
	t := strings.ToLower(strings.TrimSpace(q))
	for _, k := range analyticKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	for _, r := range t {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	q := strings.TrimSpace(body.Message)
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if q == "" {
		writeJSON(w, http.StatusOK, ChatResponse{
			Answer:    "Асуултаа бичнэ үү.",
			SessionID: sessionID,
			Meta:      map[string]any{},
		})
		return
	}

	if !looksAnalytic(q) {
		h.handleSmalltalk(ctx, w, sessionID, q)
		return
	}

	// Intent extraction: model first, deterministic fallback on quota.
	in, rawIntent, err := h.extractIntent(ctx, sessionID, q)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("intent extraction failed")
		http.Error(w, errx.SystemErrorMessage, errx.StatusOf(err))
		return
	}

	if err := h.validate.Struct(in); err != nil {
		writeJSON(w, http.StatusOK, ChatResponse{
			Answer:    "Ойлгоход мэдээлэл дутуу байна. Жишээ: “2025 оны 3 сард нүүрсний экспорт хэд вэ?”",
			SessionID: sessionID,
			Meta:      map[string]any{"intent": rawIntent},
			Result:    map[string]any{"error": codeInvalidIntent, "detail": err.Error()},
		})
		return
	}

	// Merge with the carried session state, follow-up overrides last.
	prev, _, err := h.sessions.LoadState(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("sessionID", sessionID).Msg("session state unavailable, starting fresh")
		prev = conversation.State{}
	}
	ov := conversation.DetectFollowup(q)
	state := conversation.MergeIntent(prev, in, ov)
	if ov.ComparePrevYear {
		state = conversation.ApplyComparePrevYear(state)
	}
	if err := h.sessions.SaveState(ctx, sessionID, state); err != nil {
		logx.Warn().Err(err).Str("sessionID", sessionID).Msg("failed to persist session state")
	}

	if clar := conversation.NeedsClarification(state); clar != nil {
		writeJSON(w, http.StatusOK, ChatResponse{
			Answer:    clar.Question,
			SessionID: sessionID,
			Meta:      map[string]any{"intent": in},
			Clarify:   clar,
		})
		return
	}

	qIntent := conversation.ToIntent(state, in)

	answer, result, meta, err := h.answer(ctx, q, qIntent)
	if err != nil {
		if errors.Is(err, query.ErrCalcNotImplemented) {
			writeJSON(w, http.StatusOK, ChatResponse{
				Answer:      "Энэ төрлийн дундаж тооцоолол одоогоор дэмжигдээгүй байна.",
				SessionID:   sessionID,
				Meta:        map[string]any{"intent": qIntent},
				Result:      map[string]any{"error": codeCalcNotImplemented},
				Suggestions: conversation.BuildSuggestions(state),
			})
			return
		}
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("chat pipeline failed")
		http.Error(w, errx.SystemErrorMessage, errx.StatusOf(err))
		return
	}

	if err := h.sessions.RecordTurn(ctx, sessionID, q, answer); err != nil {
		logx.Warn().Err(err).Str("sessionID", sessionID).Msg("failed to record turn")
	}
	h.qlog.Log(map[string]any{
		"session_id": sessionID,
		"question":   q,
		"intent":     qIntent,
		"meta":       meta,
		"result":     result,
	})

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:      answer,
		SessionID:   sessionID,
		Meta:        map[string]any{"intent": qIntent, "sql_meta": meta},
		Result:      result,
		Suggestions: conversation.BuildSuggestions(state),
	})
}

func (h *Handler) handleSmalltalk(ctx context.Context, w http.ResponseWriter, sessionID, q string) {
	prompt, err := prompts.RenderSmalltalk(ctx, q)
	if err != nil {
		http.Error(w, errx.SystemErrorMessage, http.StatusInternalServerError)
		return
	}
	text, err := h.llm.Text(ctx, prompt)
	if err != nil {
		logx.Error().Err(err).Msg("smalltalk generation failed")
		http.Error(w, errx.SystemErrorMessage, errx.StatusOf(err))
		return
	}
	if text == "" {
		text = "Сайн байна уу! Гадаад худалдааны статистикийн талаар асуугаарай."
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:    text,
		SessionID: sessionID,
		Meta:      map[string]any{"intent": nil},
	})
}

// extractIntent runs the model extraction with the session context, falling
// back to the keyword extractor when the model is rate limited.
func (h *Handler) extractIntent(ctx context.Context, sessionID, q string) (intent.Intent, map[string]any, error) {
	convCtx, err := h.sessions.Context(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("sessionID", sessionID).Msg("session history unavailable")
		convCtx = ""
	}

	prompt, err := prompts.RenderIntent(ctx, q, convCtx)
	if err != nil {
		return intent.Intent{}, nil, err
	}

	raw, err := h.llm.JSON(ctx, prompt)
	if err != nil {
		if llm.IsRateLimited(err) {
			logx.Warn().Str("sessionID", sessionID).Msg("model quota exceeded, using fallback extractor")
			fb := intent.ExtractFallback(q)
			return fb, nil, nil
		}
		return intent.Intent{}, nil, err
	}

	return intent.Sanitize(raw, q), raw, nil
}

// answer resolves the time anchor, builds and runs the query, and renders
// both the machine contract and the narrated reply.
func (h *Handler) answer(ctx context.Context, q string, in intent.Intent) (string, map[string]any, query.Meta, error) {
	view, _ := query.ResolveView(in.Domain, false, in.Filters)

	// "latest" resolves to a concrete period before SQL is built; yoy also
	// needs a month even when the user named only a year.
	if in.Time.IsLatest() || (in.Calc == intent.CalcYoY && in.Time.Month == 0) {
		y, m, err := query.ResolveLatest(ctx, h.runner, view)
		if err != nil {
			return "", nil, query.Meta{}, err
		}
		if y == 0 {
			result := noDataResult(in)
			return baseAnswer(in, result), result, query.Meta{View: view, Calc: in.Calc, Metric: in.Metric}, nil
		}
		if in.Time.IsLatest() {
			in.Time = intent.TimeSpec{Year: y, Month: m}
		} else {
			in.Time.Month = m
		}
	}

	sql, args, meta, err := query.Build(in)
	if err != nil {
		return "", nil, meta, err
	}

	rows, err := h.runner.Query(ctx, sql, args)
	if err != nil {
		return "", nil, meta, err
	}

	normalized, warn := query.Normalize(in.Calc, rows)
	result := buildResult(in, normalized, warn)
	base := baseAnswer(in, result)

	answer := base
	if explanation := h.explain(ctx, q, in, meta, result, rows); explanation != "" {
		answer = explanation
	}
	return answer, result, meta, nil
}

// explain asks the model to narrate the result; empty on any failure so the
// templated base answer stands.
func (h *Handler) explain(ctx context.Context, q string, in intent.Intent, meta query.Meta, result map[string]any, rows []query.Row) string {
	preview := rows
	if len(preview) > 20 {
		preview = preview[:20]
	}
	payload, err := json.Marshal(map[string]any{
		"question": q,
		"intent":   in,
		"sql_meta": meta,
		"result":   result,
		"rows":     preview,
	})
	if err != nil {
		return ""
	}
	prompt, err := prompts.RenderExplanation(ctx, string(payload))
	if err != nil {
		return ""
	}
	text, err := h.llm.Text(ctx, prompt)
	if err != nil {
		logx.Warn().Err(err).Msg("explanation generation failed")
		return ""
	}
	return strings.TrimSpace(text)
}

func noDataResult(in intent.Intent) map[string]any {
	return map[string]any{
		"value":   nil,
		"display": query.Placeholder,
		"unit":    query.Unit(in.Metric),
		"period":  query.InferPeriod(in.Calc),
		"warning": query.WarnNoData,
	}
}

// buildResult assembles the calc-dependent result contract with its display
// rendering.
func buildResult(in intent.Intent, normalized map[string]any, warn string) map[string]any {
	result := make(map[string]any, len(normalized)+4)
	for k, v := range normalized {
		result[k] = v
	}

	switch in.Calc {
	case intent.CalcYoY:
		cur, _ := normalized["current"].(*float64)
		prev, _ := normalized["previous"].(*float64)
		pct, _ := normalized["pct"].(*float64)
		result["display"] = map[string]any{
			"current":  query.FormatValue(cur, in.Metric),
			"previous": query.FormatValue(prev, in.Metric),
			"pct":      query.FormatPct(pct),
		}
	case intent.CalcTimeseriesMonth:
		result["display"] = nil
	default:
		v, _ := normalized["value"].(*float64)
		result["display"] = query.FormatValue(v, in.Metric)
	}

	result["unit"] = query.Unit(in.Metric)
	result["period"] = query.InferPeriod(in.Calc)
	if warn != "" {
		result["warning"] = warn
	}
	return result
}

// baseAnswer is the templated reply used when the model cannot narrate.
func baseAnswer(in intent.Intent, result map[string]any) string {
	switch in.Calc {
	case intent.CalcYoY:
		display, _ := result["display"].(map[string]any)
		pct, _ := result["pct"].(*float64)
		trend := query.Placeholder
		if pct != nil {
			switch {
			case *pct > 0:
				trend = "өссөн"
			case *pct < 0:
				trend = "буурсан"
			default:
				trend = "өөрчлөлтгүй"
			}
		}
		return fmt.Sprintf("%s • өмнөх оны мөн үе: Одоогийн=%v, Өмнөх=%v, Өөрчлөлт=%v (%s)",
			in.Domain, display["current"], display["previous"], display["pct"], trend)
	case intent.CalcTimeseriesMonth:
		return fmt.Sprintf("%s • %s • сар сараар цуваа гаргалаа.", in.Domain, in.Metric)
	default:
		return fmt.Sprintf("%s • %s • %s = %v", in.Domain, in.Calc, in.Metric, result["display"])
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}
