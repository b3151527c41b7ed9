package utils_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("load: %w", models.ErrUnauthenticated), http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("campaign: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrInvalidInput, http.StatusBadRequest},
		{models.ErrInvalidAmount, http.StatusBadRequest},
		{models.ErrOrderNotPending, http.StatusConflict},
		{models.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: timeout", models.ErrGateway), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, utils.StatusFor(tc.err), tc.err.Error())
	}
}

func TestWriteDomainErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	utils.WriteDomainError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
}
