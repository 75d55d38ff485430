package domain

import "slices"

// ReportDraft is the staging record a user fills in across the two wizard steps.
type ReportDraft struct {
	AnimalType   AnimalType `json:"animal_type"`
	Description  string     `json:"description"`
	Urgency      Urgency    `json:"urgency"`
	Tags         []Tag      `json:"tags"`
	Location     Location   `json:"location"`
	ImagePreview string     `json:"image_preview,omitempty"`
}

func NewReportDraft() ReportDraft {
	return ReportDraft{
		AnimalType: AnimalDog,
		Urgency:    UrgencyMedium,
		Tags:       []Tag{},
	}
}

func (d *ReportDraft) SetAnimalType(a AnimalType) error {
	if !a.Valid() {
		return NewValidationError(KindInvalidValue, "unknown animal type")
	}
	d.AnimalType = a
	return nil
}

func (d *ReportDraft) SetDescription(s string) {
	d.Description = s
}

func (d *ReportDraft) SetUrgency(u Urgency) error {
	if !u.Valid() {
		return NewValidationError(KindInvalidValue, "unknown urgency")
	}
	d.Urgency = u
	return nil
}

// ToggleTag adds the tag when absent and removes it when present,
// so two calls with the same tag restore the original membership.
func (d *ReportDraft) ToggleTag(t Tag) error {
	if !t.Valid() {
		return NewValidationError(KindInvalidValue, "unknown tag")
	}
	if i := slices.Index(d.Tags, t); i >= 0 {
		d.Tags = slices.Delete(d.Tags, i, i+1)
		return nil
	}
	d.Tags = append(d.Tags, t)
	return nil
}

func (d *ReportDraft) HasTag(t Tag) bool {
	return slices.Contains(d.Tags, t)
}

func (d *ReportDraft) SetLocation(l Location) {
	d.Location = l
}

// SetImage stores the data URI preview; an empty string clears it.
func (d *ReportDraft) SetImage(dataURI string) {
	d.ImagePreview = dataURI
}

func (d ReportDraft) HasImage() bool {
	return d.ImagePreview != ""
}

func (d ReportDraft) Clone() ReportDraft {
	c := d
	c.Tags = slices.Clone(d.Tags)
	if c.Tags == nil {
		c.Tags = []Tag{}
	}
	return c
}
