package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
)

var (
	errNoData         = errors.New("no data provided")
	errInvalidPayload = errors.New("invalid payload")
)

// bodyErrorMessage is the client-facing text for a bindBody failure.
func bodyErrorMessage(err error) string {
	if errors.Is(err, errNoData) {
		return "No data provided"
	}
	return "Invalid payload"
}

// bindBody decodes a JSON object body into dst. Empty bodies, empty objects
// and non-object payloads count as missing data.
func bindBody(c *gin.Context, dst any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return errNoData
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe) == 0 {
		return errNoData
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidPayload
	}
	return nil
}
