package domain

import (
	"time"

	"github.com/google/uuid"
)

type AnimalType string

const (
	AnimalDog    AnimalType = "dog"
	AnimalCat    AnimalType = "cat"
	AnimalBird   AnimalType = "bird"
	AnimalRabbit AnimalType = "rabbit"
	AnimalOther  AnimalType = "other"
)

func (a AnimalType) Valid() bool {
	switch a {
	case AnimalDog, AnimalCat, AnimalBird, AnimalRabbit, AnimalOther:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

type Tag string

const (
	TagInjured       Tag = "injured"
	TagHungry        Tag = "hungry"
	TagPregnant      Tag = "pregnant"
	TagWithOffspring Tag = "with_offspring"
	TagAggressive    Tag = "aggressive"
	TagFriendly      Tag = "friendly"
)

// Tags is the fixed vocabulary a draft may draw from.
var Tags = []Tag{TagInjured, TagHungry, TagPregnant, TagWithOffspring, TagAggressive, TagFriendly}

func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// IsSentinel reports whether the location is the (0,0) "not captured yet" marker.
func (l Location) IsSentinel() bool {
	return l.Latitude == 0 && l.Longitude == 0
}

type SubmittedReport struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Type        AnimalType `json:"type"`
	Description string     `json:"description"`
	Location    Location   `json:"location"`
	ImageURL    string     `json:"image_url"`
	Urgency     Urgency    `json:"urgency"`
	Tags        []Tag      `json:"tags"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NewReport is the row handed to the report store; the store assigns ID and CreatedAt.
type NewReport struct {
	UserID      uuid.UUID
	Type        AnimalType
	Description string
	Latitude    float64
	Longitude   float64
	Address     string
	ImageURL    string
	Urgency     Urgency
	Tags        []Tag
}

type InsertedReport struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// Dashboard is the derived view over the full report list.
type Dashboard struct {
	All          []SubmittedReport `json:"all"`
	HighPriority []SubmittedReport `json:"high_priority"`
	Recent       []SubmittedReport `json:"recent"`
}
