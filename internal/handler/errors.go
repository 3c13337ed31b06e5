package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

type conflictView struct {
	ID        uint64    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func conflictViews(rs []model.Reservation) []conflictView {
	out := make([]conflictView, 0, len(rs))
	for _, r := range rs {
		out = append(out, conflictView{ID: r.ID, StartTime: r.StartTime, EndTime: r.EndTime})
	}
	return out
}

// rejectionStatus maps a booking rejection onto its HTTP status.
func rejectionStatus(k booking.Kind) int {
	switch k {
	case booking.KindSpaceNotFound, booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindSlotConflict:
		return http.StatusConflict
	case booking.KindInvalidInterval, booking.KindDurationTooShort, booking.KindStartInPast,
		booking.KindAlreadyCancelled, booking.KindCompletedImmutable, booking.KindPastReservationImmutable,
		booking.KindPriceOutOfRange:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// bookingError writes the response for an error returned by the engine.
// Rejections carry their kind as "code"; slot conflicts also list the
// blocking reservations.
func bookingError(c echo.Context, log *slog.Logger, err error) error {
	var rej *booking.Rejection
	if errors.As(err, &rej) {
		body := echo.Map{"error": rej.Error(), "code": rej.Kind.String()}
		if rej.Kind == booking.KindSlotConflict {
			body["conflicts"] = conflictViews(rej.Conflicts)
		}
		return c.JSON(rejectionStatus(rej.Kind), body)
	}
	if errors.Is(err, booking.ErrStoreUnavailable) {
		log.Warn("booking store unavailable", "err", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service temporarily unavailable"})
	}
	log.Error("booking request failed", "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
