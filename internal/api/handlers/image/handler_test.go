package image

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixvault/pixvault/internal/model"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrUserNotFound, http.StatusNotFound},
		{model.ErrImageNotFound, http.StatusNotFound},
		{fmt.Errorf("confirm: %w", model.ErrImageNotFound), http.StatusNotFound},
		{model.ErrImageAlreadyExists, http.StatusConflict},
		{model.ErrBatchTooLarge, http.StatusBadRequest},
		{model.ErrImageFormatInvalid, http.StatusBadRequest},
		{model.ErrImageSizeExceeded, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
