package runner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/google/uuid"
)

// ValidationError rejects a typed answer; the prompt is shown again.
type ValidationError struct {
	Widget domain.WidgetType
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s answer: %s", e.Widget, e.Reason)
}

func invalid(w domain.WidgetType, format string, args ...any) error {
	return &ValidationError{Widget: w, Reason: fmt.Sprintf(format, args...)}
}

// Capability turns a line typed in a terminal into the response a widget
// would produce, and describes how to answer it.
type Capability struct {
	Hint  func(p ports.Prompt) string
	Parse func(p ports.Prompt, raw string) (any, error)
}

// Capabilities is the terminal rendition of every widget type.
var Capabilities = map[domain.WidgetType]Capability{
	domain.WidgetText: {
		Hint:  func(p ports.Prompt) string { return p.Script.Input.Placeholder },
		Parse: parseText,
	},
	domain.WidgetNumber: {
		Hint:  func(ports.Prompt) string { return "a number" },
		Parse: parseNumber,
	},
	domain.WidgetSingleChoice: {
		Hint:  func(ports.Prompt) string { return "pick one by number or id" },
		Parse: parseSingle,
	},
	domain.WidgetMultiChoice: {
		Hint:  func(ports.Prompt) string { return "pick one or more, comma separated" },
		Parse: parseMulti,
	},
	domain.WidgetMemberAges: {
		Hint: func(p ports.Prompt) string {
			ids := make([]string, len(p.Script.Options))
			for i, o := range p.Script.Options {
				ids[i] = o.ID
			}
			return "ages in this order: " + strings.Join(ids, ", ")
		},
		Parse: parseMemberAges,
	},
	domain.WidgetVehicleDetails: {
		Hint:  func(ports.Prompt) string { return "make, model, year, fuel" },
		Parse: parseVehicle,
	},
	domain.WidgetDocumentUpload: {
		Hint:  func(ports.Prompt) string { return "document type and the name on it, e.g. pan Asha Rao" },
		Parse: parseDocument,
	},
	domain.WidgetPayment: {
		Hint:  func(ports.Prompt) string { return "type pay to complete the payment, or fail to simulate a decline" },
		Parse: parsePayment,
	},
}

// ParseResponse decodes a typed answer for prompt.
func ParseResponse(p ports.Prompt, raw string) (any, error) {
	c, ok := Capabilities[p.Widget]
	if !ok {
		return nil, invalid(p.Widget, "no terminal rendition")
	}
	return c.Parse(p, raw)
}

func parseText(p ports.Prompt, raw string) (any, error) {
	if raw == "" {
		return nil, invalid(p.Widget, "answer cannot be empty")
	}
	if pattern := p.Script.Input.Pattern; pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern for %s: %w", p.StepID, err)
		}
		if !re.MatchString(raw) {
			return nil, invalid(p.Widget, "%q does not look right", raw)
		}
	}
	return raw, nil
}

func parseNumber(p ports.Prompt, raw string) (any, error) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil, invalid(p.Widget, "%q is not a number", raw)
	}
	in := p.Script.Input
	if in.Min != nil && n < *in.Min {
		return nil, invalid(p.Widget, "must be at least %v", *in.Min)
	}
	if in.Max != nil && n > *in.Max {
		return nil, invalid(p.Widget, "must be at most %v", *in.Max)
	}
	if n == float64(int(n)) {
		return int(n), nil
	}
	return n, nil
}

func pickOption(p ports.Prompt, token string) (string, error) {
	token = strings.TrimSpace(token)
	if i, err := strconv.Atoi(token); err == nil && i >= 1 && i <= len(p.Script.Options) {
		return p.Script.Options[i-1].ID, nil
	}
	for _, o := range p.Script.Options {
		if strings.EqualFold(o.ID, token) || strings.EqualFold(o.Label, token) {
			return o.ID, nil
		}
	}
	return "", invalid(p.Widget, "%q is not one of the options", token)
}

func parseSingle(p ports.Prompt, raw string) (any, error) {
	return pickOption(p, raw)
}

func parseMulti(p ports.Prompt, raw string) (any, error) {
	var ids []string
	for _, token := range strings.Split(raw, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		id, err := pickOption(p, token)
		if err != nil {
			return nil, err
		}
		if !domain.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, invalid(p.Widget, "pick at least one option")
	}
	if limit := p.Script.Input.MaxSelections; limit > 0 && len(ids) > limit {
		return nil, invalid(p.Widget, "pick at most %d", limit)
	}
	return ids, nil
}

func parseMemberAges(p ports.Prompt, raw string) (any, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != len(p.Script.Options) {
		return nil, invalid(p.Widget, "expected %d ages, got %d", len(p.Script.Options), len(parts))
	}
	members := make([]domain.Member, len(parts))
	for i, part := range parts {
		age, err := parseNumber(ports.Prompt{Widget: p.Widget, Script: p.Script}, strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		n, ok := domain.AsInt(age)
		if !ok {
			return nil, invalid(p.Widget, "ages are whole numbers")
		}
		members[i] = domain.Member{Relation: p.Script.Options[i].ID, Age: n}
	}
	return members, nil
}

func parseVehicle(p ports.Prompt, raw string) (any, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, invalid(p.Widget, "expected make, model, year and fuel")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, invalid(p.Widget, "%q is not a year", parts[2])
	}
	in := p.Script.Input
	if (in.Min != nil && float64(year) < *in.Min) || (in.Max != nil && float64(year) > *in.Max) {
		return nil, invalid(p.Widget, "year %d is out of range", year)
	}
	return map[string]any{"make": parts[0], "model": parts[1], "year": year, "fuel": strings.ToLower(parts[3])}, nil
}

// parseDocument simulates the upload and extraction: the document type is
// verified when it is one of the options.
func parseDocument(p ports.Prompt, raw string) (any, error) {
	kind, name, _ := strings.Cut(raw, " ")
	id, err := pickOption(p, kind)
	if err != nil {
		return map[string]any{"status": "failed", "documentType": kind}, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(p.Widget, "add the name printed on the document")
	}
	return map[string]any{"status": "verified", "documentType": id, "name": name}, nil
}

// parsePayment simulates the gateway round trip.
func parsePayment(p ports.Prompt, raw string) (any, error) {
	switch strings.ToLower(raw) {
	case "pay":
		tx := uuid.NewString()
		return map[string]any{
			"status":        "success",
			"transactionId": tx,
			"policyNumber":  "POL-" + strings.ToUpper(tx[:8]),
		}, nil
	case "fail":
		return map[string]any{"status": "failed", "transactionId": uuid.NewString()}, nil
	}
	return nil, invalid(p.Widget, "type pay or fail")
}
