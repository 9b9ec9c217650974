package leads

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// InquiryRequest is the body of POST /api/inquiry. Pointer fields carry a
// default that applies only when the key is absent.
type InquiryRequest struct {
	Timestamp        *string     `json:"timestamp"`
	CustomerName     string      `json:"customerName"`
	Phone            string      `json:"phone"`
	Email            string      `json:"email"`
	Address          string      `json:"address"`
	JobTypes         []string    `json:"jobTypes"`
	Timeline         string      `json:"timeline"`
	LastPainted      interface{} `json:"lastPainted"`
	PreviousCustomer interface{} `json:"previousCustomer"`
	Notes            string      `json:"notes"`
	Status           *string     `json:"status"`
}

func (r InquiryRequest) fields(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"Timestamp":         stringOr(r.Timestamp, now.Format(timestampLayout)),
		"Customer Name":     r.CustomerName,
		"Phone":             r.Phone,
		"Email":             r.Email,
		"Address":           r.Address,
		"Job Types":         strings.Join(r.JobTypes, ", "),
		"Timeline":          r.Timeline,
		"Last Painted":      r.LastPainted,
		"Previous Customer": r.PreviousCustomer,
		"Notes":             r.Notes,
		"Status":            stringOr(r.Status, "New"),
	}
}

// Conditions is the nested site-conditions object of an estimate.
type Conditions struct {
	Prep      string `json:"prep"`
	Furniture string `json:"furniture"`
	Ladder    string `json:"ladder"`
}

// EstimateRequest is the body of POST /api/estimate.
type EstimateRequest struct {
	Date         *string     `json:"date"`
	CustomerName string      `json:"customerName"`
	JobAddress   string      `json:"jobAddress"`
	Estimator    string      `json:"estimator"`
	JobType      string      `json:"jobType"`
	TotalHours   interface{} `json:"totalHours"`
	LaborDays    interface{} `json:"laborDays"`
	TotalValue   interface{} `json:"totalValue"`
	Conditions   Conditions  `json:"conditions"`
	Colors       string      `json:"colors"`
	Tools        []string    `json:"tools"`
	Notes        string      `json:"notes"`
}

func (r EstimateRequest) fields(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"Date":               stringOr(r.Date, now.Format(dateLayout)),
		"Customer Name":      r.CustomerName,
		"Job Address":        r.JobAddress,
		"Estimator":          r.Estimator,
		"Job Type":           r.JobType,
		"Total Hours":        valueOr(r.TotalHours, 0),
		"Labor Days":         valueOr(r.LaborDays, 0),
		"Estimated Value":    valueOr(r.TotalValue, 0),
		"Prep Condition":     r.Conditions.Prep,
		"Furniture Level":    r.Conditions.Furniture,
		"Ladder Requirement": r.Conditions.Ladder,
		"Colors/Products":    r.Colors,
		"Equipment Needed":   strings.Join(r.Tools, ", "),
		"Notes":              r.Notes,
	}
}

// PipelineJobRequest is the body of POST /api/job.
type PipelineJobRequest struct {
	DateAdded      *string     `json:"dateAdded"`
	CustomerName   string      `json:"customerName"`
	Address        string      `json:"address"`
	Phone          string      `json:"phone"`
	JobType        string      `json:"jobType"`
	EstimatedDays  interface{} `json:"estimatedDays"`
	EstimatedValue interface{} `json:"estimatedValue"`
	Status         *string     `json:"status"`
	ScheduledDate  string      `json:"scheduledDate"`
	Estimator      string      `json:"estimator"`
	Notes          string      `json:"notes"`
}

func (r PipelineJobRequest) fields(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"Date Added":      stringOr(r.DateAdded, now.Format(dateLayout)),
		"Customer Name":   r.CustomerName,
		"Address":         r.Address,
		"Phone":           r.Phone,
		"Job Type":        r.JobType,
		"Estimated Days":  r.EstimatedDays,
		"Estimated Value": r.EstimatedValue,
		"Status":          stringOr(r.Status, "New Lead"),
		"Scheduled Date":  r.ScheduledDate,
		"Estimator":       r.Estimator,
		"Notes":           r.Notes,
	}
}

// JobUpdateRequest is the body of PUT /api/job/:rowIndex. Only keys present
// in the body are written; a key present with null clears its cell.
type JobUpdateRequest struct {
	Status        *string `json:"status"`
	ScheduledDate *string `json:"scheduledDate"`
	Notes         *string `json:"notes"`
}

func (r *JobUpdateRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, dst := range map[string]**string{
		"status":        &r.Status,
		"scheduledDate": &r.ScheduledDate,
		"notes":         &r.Notes,
	} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		var s *string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if s == nil {
			s = new(string)
		}
		*dst = s
	}
	return nil
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func valueOr(v interface{}, def interface{}) interface{} {
	if v == nil {
		return def
	}
	return v
}
