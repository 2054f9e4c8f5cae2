package uploads

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	uploadsvc "homesocial-backend/internal/application/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, body map[string]string) (int, map[string]interface{}) {
	t.Helper()
	h := &Handlers{Service: &uploadsvc.Service{Storage: uploadsvc.NewMemoryStorage(), PhotoBucket: "photos", VideoBucket: "videos"}}
	app := fiber.New()
	app.Post("/uploads/sign", h.Sign)

	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/uploads/sign", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestSign_GeneratesListingID(t *testing.T) {
	status, out := sign(t, map[string]string{"kind": "video", "file_name": "tour.MOV"})
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	id, err := uuid.Parse(data["listing_id"].(string))
	require.NoError(t, err)
	upload := data["upload"].(map[string]interface{})
	assert.Equal(t, "videos", upload["bucket"])
	assert.True(t, strings.HasPrefix(upload["path"].(string), "listing/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(upload["path"].(string), ".mov"))
}

func TestSign_KeepsGivenListingID(t *testing.T) {
	id := uuid.NewString()
	status, out := sign(t, map[string]string{"listing_id": id, "kind": "photo", "file_name": "front.jpg"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, id, out["data"].(map[string]interface{})["listing_id"])
}

func TestSign_FieldErrors(t *testing.T) {
	cases := []struct {
		body  map[string]string
		field string
	}{
		{map[string]string{"listing_id": "nope", "kind": "photo", "file_name": "a.jpg"}, "listing_id"},
		{map[string]string{"kind": "audio", "file_name": "a.mp3"}, "kind"},
		{map[string]string{"kind": "photo"}, "file_name"},
	}
	for _, tc := range cases {
		status, out := sign(t, tc.body)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, tc.field, out["error"].(map[string]interface{})["details"].(map[string]interface{})["field"])
	}
}
