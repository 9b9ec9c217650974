package leads

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// inquiryJoblist is the tracking row mirrored for a fresh inquiry.
func inquiryJoblist(r InquiryRequest, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"Address":           r.Address,
		"Int/Ext":           interiorExterior(r.JobTypes...),
		"Status":            StatusNeedEstimate,
		"Action Needed":     "Schedule Estimate",
		"Notes":             r.Notes,
		"Customer Name":     r.CustomerName,
		"Phone":             r.Phone,
		"Email":             r.Email,
		"Date Added":        now.Format(dateLayout),
		"Last Updated":      now.Format(updatedLayout),
		"Estimate Complete": "No",
	}
}

// estimateJoblist is the tracking row mirrored for a completed estimate.
func estimateJoblist(r EstimateRequest, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"Address":           r.JobAddress,
		"Int/Ext":           interiorExterior(r.JobType),
		"Status":            StatusEstimateSent,
		"Labor Days":        r.LaborDays,
		"Action Needed":     "Follow Up",
		"Notes":             r.Notes,
		"Customer Name":     r.CustomerName,
		"Date Added":        now.Format(dateLayout),
		"Last Updated":      now.Format(updatedLayout),
		"Estimate Complete": "Yes",
		"Estimator":         r.Estimator,
		"Est. Value":        EstimatedValue(r.LaborDays),
	}
}

// EstimatedValue is laborDays × DailyLaborRate when laborDays is a number or
// numeric text, and "" otherwise.
func EstimatedValue(laborDays interface{}) interface{} {
	days, ok := number(laborDays)
	if !ok {
		return ""
	}
	return days * DailyLaborRate
}

func number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	// NaN and Inf parse but cannot be written to a cell.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// interiorExterior reduces job-type tags to the Joblist Int/Ext label.
func interiorExterior(tags ...string) string {
	var interior, exterior bool
	var kept []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		kept = append(kept, tag)
		lower := strings.ToLower(tag)
		if strings.Contains(lower, "interior") {
			interior = true
		}
		if strings.Contains(lower, "exterior") {
			exterior = true
		}
	}

	switch {
	case interior && exterior:
		return "Interior/Exterior"
	case interior:
		return "Interior"
	case exterior:
		return "Exterior"
	default:
		return strings.Join(kept, ", ")
	}
}
