package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
)

func TestRejectionStatus(t *testing.T) {
	tests := []struct {
		kind booking.Kind
		want int
	}{
		{booking.KindSpaceNotFound, http.StatusNotFound},
		{booking.KindNotFound, http.StatusNotFound},
		{booking.KindSlotConflict, http.StatusConflict},
		{booking.KindInvalidInterval, http.StatusBadRequest},
		{booking.KindAlreadyCancelled, http.StatusBadRequest},
		{booking.KindPriceOutOfRange, http.StatusBadRequest},
		{booking.Kind(0), http.StatusInternalServerError},
		{booking.Kind(200), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, rejectionStatus(tc.kind), tc.kind.String())
	}
}
