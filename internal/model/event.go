package model

import (
	"strings"
)

// SecondarySourceName tags provenance of fields borrowed from the secondary feed.
const SecondarySourceName = "runninglife"

// PrimarySourceName identifies the primary feed.
const PrimarySourceName = "roadrun"

// ValidationSource records which feed(s) contributed to a reconciled event.
type ValidationSource string

const (
	ValidationSourcePrimary       ValidationSource = "primary"
	ValidationSourceBoth          ValidationSource = "both"
	ValidationSourceSecondaryOnly ValidationSource = "secondary_only"
)

// Confidence is the coarse trust tier attached to a reconciled event.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// DataStatus marks how an event relates to the snapshot.
type DataStatus string

const (
	DataStatusNew     DataStatus = "new"
	DataStatusUpdated DataStatus = "updated"
)

// RawEvent is a listing as scraped from one source, before reconciliation.
type RawEvent struct {
	Name               string `json:"name"`
	Date               string `json:"date,omitempty"`
	Location           string `json:"location,omitempty"`
	Link               string `json:"link,omitempty"`
	Status             string `json:"status,omitempty"`
	RegistrationStatus string `json:"registration_status,omitempty"`
	Organizer          string `json:"organizer,omitempty"`
	Source             string `json:"source,omitempty"`
	DateRaw            string `json:"date_raw,omitempty"`
	ScrapedAt          string `json:"scraped_at,omitempty"`
}

// Validation describes how an event was cross-checked between sources.
type Validation struct {
	Source         ValidationSource `json:"source"`
	CrossValidated bool             `json:"cross_validated"`
	Confidence     Confidence       `json:"confidence"`
	MatchScore     float64          `json:"match_score"`
}

// Details holds the fields scraped from an event's detail page.
type Details struct {
	Name               string `json:"name,omitempty"`
	Representative     string `json:"representative,omitempty"`
	Email              string `json:"email,omitempty"`
	DateTime           string `json:"date_time,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Category           string `json:"category,omitempty"`
	Region             string `json:"region,omitempty"`
	Location           string `json:"location,omitempty"`
	Organizer          string `json:"organizer,omitempty"`
	RegistrationPeriod string `json:"registration_period,omitempty"`
	Website            string `json:"website,omitempty"`
	Description        string `json:"description,omitempty"`
}

// Event is a reconciled marathon event and the unit stored in the snapshot.
// Unknown JSON keys are carried in Extra so older snapshot documents survive
// a load/save cycle untouched.
type Event struct {
	Name               string     `json:"name"`
	Date               string     `json:"date,omitempty"`
	Location           string     `json:"location,omitempty"`
	Link               string     `json:"link,omitempty"`
	RegistrationStatus string     `json:"registration_status,omitempty"`
	RegistrationPeriod string     `json:"registration_period,omitempty"`
	Organizer          string     `json:"organizer,omitempty"`
	LocationSource     string     `json:"location_source,omitempty"`
	SecondaryDate      string     `json:"date_runninglife,omitempty"`
	ScrapedAt          string     `json:"scraped_at,omitempty"`
	Validation         Validation `json:"validation"`
	DataStatus         DataStatus `json:"data_status,omitempty"`
	ChangeLog          string     `json:"change_log,omitempty"`

	Representative string `json:"representative,omitempty"`
	Email          string `json:"email,omitempty"`
	DateTime       string `json:"date_time,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Category       string `json:"category,omitempty"`
	Region         string `json:"region,omitempty"`
	Website        string `json:"website,omitempty"`
	Description    string `json:"description,omitempty"`

	Extra map[string]any `json:"-"`
}

// FromRaw copies the shared fields of a scraped listing into a new Event.
func FromRaw(r RawEvent) Event {
	return Event{
		Name:               r.Name,
		Date:               r.Date,
		Location:           r.Location,
		Link:               r.Link,
		RegistrationStatus: r.RegistrationStatus,
		Organizer:          r.Organizer,
		ScrapedAt:          r.ScrapedAt,
	}
}

// Key returns the snapshot key: date + "_" + name. A missing date renders as
// "None", which is what existing snapshot documents contain for such events.
//
// The key is a weak natural key: unrelated events sharing a name and date
// collide, and any change to how names or dates are scraped orphans history.
func (e Event) Key() string {
	date := e.Date
	if date == "" {
		date = "None"
	}
	return date + "_" + e.Name
}

// MonitoredFields lists the fields compared when diffing against the snapshot.
var MonitoredFields = []string{"location", "link", "registration_status", "organizer", "date"}

// Field returns the value of a monitored field by its JSON name.
func (e Event) Field(name string) string {
	switch name {
	case "location":
		return e.Location
	case "link":
		return e.Link
	case "registration_status":
		return e.RegistrationStatus
	case "organizer":
		return e.Organizer
	case "date":
		return e.Date
	default:
		return ""
	}
}

// ApplyDetails copies non-empty detail-page values onto the event. The
// detail name is ignored so the snapshot key stays stable.
func (e *Event) ApplyDetails(d Details) {
	setIf(&e.Representative, d.Representative)
	setIf(&e.Email, d.Email)
	setIf(&e.DateTime, d.DateTime)
	setIf(&e.Phone, d.Phone)
	setIf(&e.Category, d.Category)
	setIf(&e.Region, d.Region)
	setIf(&e.Location, d.Location)
	setIf(&e.Organizer, d.Organizer)
	setIf(&e.RegistrationPeriod, d.RegistrationPeriod)
	setIf(&e.Website, d.Website)
	setIf(&e.Description, d.Description)
}

// MergeFrom shallow-merges incoming onto e. Non-empty incoming fields win;
// fields the incoming record leaves empty keep their stored value.
func (e *Event) MergeFrom(in Event) {
	setIf(&e.Name, in.Name)
	setIf(&e.Date, in.Date)
	setIf(&e.Location, in.Location)
	setIf(&e.Link, in.Link)
	setIf(&e.RegistrationStatus, in.RegistrationStatus)
	setIf(&e.RegistrationPeriod, in.RegistrationPeriod)
	setIf(&e.Organizer, in.Organizer)
	setIf(&e.LocationSource, in.LocationSource)
	setIf(&e.SecondaryDate, in.SecondaryDate)
	setIf(&e.ScrapedAt, in.ScrapedAt)
	setIf(&e.ChangeLog, in.ChangeLog)
	setIf(&e.Representative, in.Representative)
	setIf(&e.Email, in.Email)
	setIf(&e.DateTime, in.DateTime)
	setIf(&e.Phone, in.Phone)
	setIf(&e.Category, in.Category)
	setIf(&e.Region, in.Region)
	setIf(&e.Website, in.Website)
	setIf(&e.Description, in.Description)

	if in.DataStatus != "" {
		e.DataStatus = in.DataStatus
	}
	if in.Validation.Source != "" {
		e.Validation = in.Validation
	}
	for k, v := range in.Extra {
		if v == nil {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]any, len(in.Extra))
		}
		e.Extra[k] = v
	}
}

func setIf(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}
