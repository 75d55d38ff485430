package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"adespota/internal/domain"
)

type Position struct {
	Latitude  float64
	Longitude float64
}

// PositionSource is the device position query. It is single shot and bounded by
// the source's own timeout; Capture does not add one.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

type Capture struct {
	geocoder Geocoder
	logger   *slog.Logger
}

func NewCapture(geocoder Geocoder, logger *slog.Logger) *Capture {
	return &Capture{geocoder: geocoder, logger: logger}
}

// RequestLocation turns one position callback into a Location or a *domain.LocationError.
func (c *Capture) RequestLocation(ctx context.Context, src PositionSource) (domain.Location, error) {
	const op = "geo.Capture.RequestLocation"

	pos, err := src.CurrentPosition(ctx)
	if err != nil {
		var locErr *domain.LocationError
		if errors.As(err, &locErr) {
			return domain.Location{}, locErr
		}
		return domain.Location{}, &domain.LocationError{Message: err.Error()}
	}
	if !validCoordinates(pos) {
		return domain.Location{}, &domain.LocationError{Message: "position out of range"}
	}

	address, err := c.geocoder.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		c.logger.Warn("reverse geocode failed, using coordinates",
			slog.String("op", op),
			slog.Any("error", err),
		)
		address = CoordinateLabel(pos.Latitude, pos.Longitude)
	}

	return domain.Location{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Address:   address,
	}, nil
}

func validCoordinates(p Position) bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

func CoordinateLabel(lat, lng float64) string {
	return fmt.Sprintf("Lat %.5f, Lng %.5f", lat, lng)
}

// ReportedPosition is a position the client already obtained from its device,
// or the device's failure reason.
type ReportedPosition struct {
	Latitude  float64
	Longitude float64
	Error     string
}

func (p ReportedPosition) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, &domain.LocationError{Message: err.Error()}
	}
	if p.Error != "" {
		return Position{}, &domain.LocationError{Message: p.Error}
	}
	return Position{Latitude: p.Latitude, Longitude: p.Longitude}, nil
}
