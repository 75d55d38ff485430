package domain

import "strings"

// Blank fields are reported as MissingField by the auth service rather than
// by the binder, so only format rules live in these tags.
type SignUpRequest struct {
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	Password        string `json:"password" validate:"max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"max=128"`
	Phone           string `json:"phone" validate:"omitempty,e164"`
}

func (r SignUpRequest) Check() error {
	switch {
	case strings.TrimSpace(r.Email) == "":
		return NewValidationError(KindMissingField, "Enter your email")
	case strings.TrimSpace(r.Phone) == "":
		return NewValidationError(KindMissingField, "Enter your phone number")
	case r.Password == "":
		return NewValidationError(KindMissingField, "Enter your password")
	case r.Password != r.ConfirmPassword:
		return NewValidationError(KindPasswordMismatch, "Passwords do not match")
	}
	return nil
}

type SignInRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=128"`
}

func (r SignInRequest) Check() error {
	switch {
	case strings.TrimSpace(r.Email) == "":
		return NewValidationError(KindMissingField, "Enter your email")
	case r.Password == "":
		return NewValidationError(KindMissingField, "Enter your password")
	}
	return nil
}

type AuthResponse struct {
	Session      *Session            `json:"session"`
	Verification *VerificationStatus `json:"verification,omitempty"`
}

type CodeRequest struct {
	Code string `json:"code" validate:"max=16"`
}

// DraftPatch carries the step-1 and severity fields; nil fields are left alone.
type DraftPatch struct {
	AnimalType  *AnimalType `json:"animal_type,omitempty"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Urgency     *Urgency    `json:"urgency,omitempty"`
}

func (p DraftPatch) Apply(d *ReportDraft) error {
	if p.AnimalType != nil {
		if err := d.SetAnimalType(*p.AnimalType); err != nil {
			return err
		}
	}
	if p.Urgency != nil {
		if err := d.SetUrgency(*p.Urgency); err != nil {
			return err
		}
	}
	if p.Description != nil {
		d.SetDescription(*p.Description)
	}
	return nil
}

type ImageRequest struct {
	DataURI string `json:"data_uri" validate:"omitempty,image_data_uri"`
}

// LocationRequest is the device's answer to a position query: either a
// coordinate pair or the error message the device reported.
type LocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"lat"`
	Longitude float64 `json:"longitude" validate:"lng"`
	Error     string  `json:"error,omitempty" validate:"max=500"`
}

type ShareLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Target   string `json:"target"`
	Title    string `json:"title"`
}

type ResendResponse struct {
	Sent   bool               `json:"sent"`
	Status VerificationStatus `json:"status"`
}
