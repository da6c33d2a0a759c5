package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"coinpulse/internal/models"
	"coinpulse/internal/repository"
)

// Summarizer produces free text for a prompt; the text is expected, but not
// guaranteed, to contain a JSON object.
type Summarizer interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Verdict is the structured summary the model is asked to return.
type Verdict struct {
	MostCommonDirection string   `json:"mostCommonDirection"`
	Verdict             string   `json:"verdict"`
	Summary             string   `json:"summary"`
	NotableReasons      []string `json:"notableReasons"`
}

// StatsResult is the aggregate-stats payload. Message is set instead of the
// numeric fields when there is nothing to aggregate.
type StatsResult struct {
	Total       int      `json:"total"`
	Positive    int      `json:"positive"`
	Negative    int      `json:"negative"`
	UpPercent   int      `json:"upPercent"`
	DownPercent int      `json:"downPercent"`
	AIVerdict   *Verdict `json:"aiVerdict,omitempty"`
	Timeframe   string   `json:"timeframe"`
	Message     string   `json:"message,omitempty"`
}

// AggregationService computes direction stats for a coin and timeframe and
// asks the AI provider for a narrative verdict. AI failures degrade to a
// fixed fallback verdict; they never fail the stats call.
type AggregationService struct {
	Repo       repository.Repository
	Summarizer Summarizer
	Logger     *zap.Logger
}

// NormalizeTimeframe strips non-digit characters from a timeframe token
// ("24h" -> "24", "7d" -> "7", "1M" -> "1") and validates the result.
func NormalizeTimeframe(token string) (string, error) {
	var sb strings.Builder
	for _, r := range token {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	tf := sb.String()
	if !models.ValidTimeframe(tf) {
		return "", validationErr(CodeInvalidTimeframe, "invalid timeframe")
	}
	return tf, nil
}

func (s *AggregationService) Stats(ctx context.Context, slug, timeframeToken string) (*StatsResult, error) {
	tf, err := NormalizeTimeframe(timeframeToken)
	if err != nil {
		return nil, err
	}

	coin, err := s.Repo.GetCoinBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if coin == nil {
		return &StatsResult{Timeframe: tf, Message: "No predictions yet"}, nil
	}

	facets, err := s.Repo.ListFacets(ctx, coin.ID, tf)
	if err != nil {
		return nil, err
	}
	if facets == nil {
		facets = &models.PredictionFacets{}
	}

	total := len(facets.Directions)
	if total == 0 {
		return &StatsResult{
			Timeframe: tf,
			Message:   fmt.Sprintf("No prediction available for this timeframe (%s)", tf),
		}, nil
	}
	if len(facets.Texts) == 0 || len(facets.TargetPrices) == 0 || len(facets.FulfillmentTimes) == 0 {
		return nil, validationErr(CodeInsufficientData, "insufficient data for AI summary")
	}

	positive := 0
	for _, d := range facets.Directions {
		if d.Value == models.DirectionPositive {
			positive++
		}
	}
	negative := total - positive
	upPercent := int(math.Round(float64(positive) / float64(total) * 100))
	downPercent := 100 - upPercent

	verdict, raw := s.summarize(ctx, coin, tf, facets)

	result := &StatsResult{
		Total:       total,
		Positive:    positive,
		Negative:    negative,
		UpPercent:   upPercent,
		DownPercent: downPercent,
		AIVerdict:   verdict,
		Timeframe:   tf,
	}
	s.snapshot(ctx, slug, tf, result, raw)
	return result, nil
}

// summarize returns the parsed verdict and the raw model output. Every
// failure path yields the fixed fallback verdict.
func (s *AggregationService) summarize(ctx context.Context, coin *models.Coin, tf string, facets *models.PredictionFacets) (*Verdict, string) {
	prompt := buildSummaryPrompt(coin.Heading, coin.Symbol, tf, facets)

	raw, err := s.Summarizer.GenerateContent(ctx, prompt)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("ai summary call failed", zap.String("slug", coin.Slug), zap.Error(err))
		}
		return fallbackVerdict("AI summary is temporarily unavailable."), raw
	}

	obj, ok := extractJSONObject(raw)
	if !ok {
		if s.Logger != nil {
			s.Logger.Warn("no JSON object in ai response", zap.String("slug", coin.Slug))
		}
		return fallbackVerdict("AI response could not be parsed."), raw
	}
	var verdict Verdict
	if err := json.Unmarshal([]byte(obj), &verdict); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("malformed JSON in ai response", zap.String("slug", coin.Slug), zap.Error(err))
		}
		return fallbackVerdict("AI response could not be parsed."), raw
	}
	if verdict.NotableReasons == nil {
		verdict.NotableReasons = []string{}
	}
	return &verdict, raw
}

func fallbackVerdict(summary string) *Verdict {
	return &Verdict{
		Verdict:             "Unable to determine",
		Summary:             summary,
		MostCommonDirection: "unknown",
		NotableReasons:      []string{},
	}
}

// snapshot caches the latest verdict per slug and timeframe, best-effort.
func (s *AggregationService) snapshot(ctx context.Context, slug, tf string, result *StatsResult, raw string) {
	if result.AIVerdict == nil {
		return
	}
	reasons, err := json.Marshal(result.AIVerdict.NotableReasons)
	if err != nil {
		reasons = []byte("[]")
	}
	rawJSON, err := json.Marshal(map[string]string{"text": raw})
	if err != nil {
		rawJSON = []byte("{}")
	}
	item := &models.SummarySnapshot{
		Slug:                slug,
		Timeframe:           tf,
		Total:               result.Total,
		Positive:            result.Positive,
		Negative:            result.Negative,
		Verdict:             result.AIVerdict.Verdict,
		Summary:             result.AIVerdict.Summary,
		MostCommonDirection: result.AIVerdict.MostCommonDirection,
		NotableReasons:      datatypes.JSON(reasons),
		RawResponse:         datatypes.JSON(rawJSON),
	}
	if err := s.Repo.UpsertSummarySnapshot(ctx, item); err != nil && s.Logger != nil {
		s.Logger.Warn("summary snapshot upsert failed", zap.String("slug", slug), zap.Error(err))
	}
}

// buildSummaryPrompt lines the filtered facet slices up by position. The
// slices are filtered independently, so position i is not guaranteed to be
// one original submission; missing positions get placeholder values.
func buildSummaryPrompt(heading, symbol, tf string, facets *models.PredictionFacets) string {
	texts := facets.Texts
	total := len(texts)
	if total == 0 {
		total = len(facets.Directions)
	}

	var sb strings.Builder
	sb.WriteString("You are a professional financial analyst AI assistant.\n")
	fmt.Fprintf(&sb, "Summarize the following %d predictions for %s (%s).\n\n", total, heading, symbol)
	sb.WriteString("Timeframe reference: If timeframe is \"7\" it's a 7 days prediction, \"24\" means 24 hours, and \"1\" means 1 month. Give your assessment accordingly.\n\n")
	fmt.Fprintf(&sb, "Timeframe: %s\n\n", tf)
	sb.WriteString("Before you begin, evaluate if the predictions are credible: if most texts are too vague, overly short, unclear, or repetitive with no real reasoning or financial logic, you should mark the entire prediction set as **not credible**.\n")
	sb.WriteString("In such case, return a safe, general JSON response with generic summary and avoid providing strong directional verdicts.\n\n")

	for i, text := range texts {
		label := "Down"
		if i < len(facets.Directions) && facets.Directions[i].Value == models.DirectionPositive {
			label = "Up"
		}
		price := "N/A"
		if i < len(facets.TargetPrices) {
			price = facets.TargetPrices[i].Value.String()
		}
		date := "unspecified"
		if i < len(facets.FulfillmentTimes) {
			date = facets.FulfillmentTimes[i].Date.Format("Jan 2, 2006, 3:04 PM")
		}
		fmt.Fprintf(&sb, "Prediction %d:\n", i+1)
		fmt.Fprintf(&sb, "- Direction: %s\n", label)
		fmt.Fprintf(&sb, "- Target Price: $%s\n", price)
		fmt.Fprintf(&sb, "- Fulfillment Date: %s\n", date)
		fmt.Fprintf(&sb, "- Reason: %s\n\n", strings.TrimSpace(text.Content))
	}

	sb.WriteString("---\n")
	sb.WriteString("Now analyze the predictions and return the following response in **JSON object format only**, no explanation text:\n")
	sb.WriteString("\n{\n")
	sb.WriteString("  \"mostCommonDirection\": \"Up\" or \"Down\",\n")
	sb.WriteString("  \"verdict\": \"Up\" or \"Down\",\n")
	sb.WriteString("  \"summary\": \"Short 2-3 sentence summary of key reasoning\",\n")
	sb.WriteString("  \"notableReasons\": [\"list\", \"of\", \"most\", \"repeated\", \"phrases or patterns\"]\n")
	sb.WriteString("}\n")

	return sb.String()
}

// extractJSONObject returns the first balanced top-level {...} in raw,
// ignoring braces inside JSON string literals.
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
