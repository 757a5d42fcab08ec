package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// Images are listed out of lexical order so that picking the first key by
// sorting would select the wrong one.
const productWithImages = `{
	"status": "ok",
	"data": {
		"id": "p1",
		"title": "Linen shirt",
		"images": {
			"img_b": {"image_url": "https://img.example.com/b.jpg", "image_filename": "b.jpg"},
			"img_a": {"image_url": "https://img.example.com/a.jpg", "image_filename": "a.jpg"}
		}
	}
}`

type fakeRequester struct {
	cfg    Config
	base   string
	result *Result
	err    error
	calls  []endpoint
}

func (f *fakeRequester) call(_ context.Context, ep endpoint, _ pathVars, _ url.Values, _ *requestBody) (*Result, error) {
	f.calls = append(f.calls, ep)
	return f.result, f.err
}

func (f *fakeRequester) resolve(path string) (*url.URL, error) {
	return url.Parse(f.base + f.cfg.APIVersion + "/" + path)
}

func (f *fakeRequester) Config() Config {
	return f.cfg
}

func newFakeRequester(t *testing.T, status int, body string) *fakeRequester {
	t.Helper()
	res, err := newResult(status, http.Header{}, []byte(body))
	if err != nil {
		t.Fatalf("newResult: %v", err)
	}
	return &fakeRequester{
		cfg:    Config{APIKey: testAPIKey, APIVersion: "v1"},
		base:   "https://gw.example.com/catalog/",
		result: res,
	}
}

func TestImageURL_FirstImage(t *testing.T) {
	server, rec := newRecordingServer(t, StatusProductFound, productWithImages)
	client := newTestClient(server.URL)

	res, err := client.Catalog().ImageURL(context.Background(), "summer", "p1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Method != http.MethodGet || rec.Path != "/v1/catalog/summer/products/p1" {
		t.Errorf("request = %s %s", rec.Method, rec.Path)
	}
	if res.StatusCode != StatusProductFound {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, StatusProductFound)
	}
	if res.Info == nil {
		t.Fatal("expected Info")
	}
	if res.Info.ImageID != "img_b" {
		t.Errorf("ImageID = %q, want img_b (first in document order)", res.Info.ImageID)
	}
	if res.Info.ID != "p1" || res.Info.ImageFilename != "b.jpg" || res.Info.ImageURL != "https://img.example.com/b.jpg" {
		t.Errorf("Info = %+v", res.Info)
	}
	want := server.URL + "/v1/catalog/summer/images/b.jpg?api_key=" + testAPIKey
	if res.Info.ImageURLLocal != want {
		t.Errorf("ImageURLLocal = %q, want %q", res.Info.ImageURLLocal, want)
	}
	if res.Info.ProductInfo != nil {
		t.Error("ProductInfo should be omitted by default")
	}

	body, ok := res.Body.(map[string]any)
	if !ok {
		t.Fatalf("Body = %T, want map", res.Body)
	}
	if body["image_url_local"] != want || body["image_id"] != "img_b" {
		t.Errorf("Body = %v", body)
	}
	if _, ok := body["product_info"]; ok {
		t.Error("product_info should be absent from body")
	}
}

func TestImageURL_ExplicitImageWithCrop(t *testing.T) {
	fake := newFakeRequester(t, StatusProductFound, productWithImages)

	res, err := imageURL(context.Background(), fake, "summer", "p1", &ImageURLOptions{
		ImageID: "img_a",
		Crop:    &CropBox{TopLeftX: 10, TopLeftY: 20, Width: 300, Height: 400},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://gw.example.com/catalog/v1/catalog/summer/images/a.jpg" +
		"?api_key=test-key&top_left_x=10&top_left_y=20&width=300&height=400"
	if res.Info.ImageURLLocal != want {
		t.Errorf("ImageURLLocal = %q, want %q", res.Info.ImageURLLocal, want)
	}
	if len(fake.calls) != 1 || fake.calls[0] != epProductGet {
		t.Errorf("calls = %v, want one product fetch", fake.calls)
	}
}

func TestImageURL_ReturnProductInfo(t *testing.T) {
	fake := newFakeRequester(t, StatusProductFound, productWithImages)

	res, err := imageURL(context.Background(), fake, "summer", "p1", &ImageURLOptions{ReturnProductInfo: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var product map[string]any
	if err := json.Unmarshal(res.Info.ProductInfo, &product); err != nil {
		t.Fatalf("ProductInfo is not JSON: %v", err)
	}
	if product["title"] != "Linen shirt" {
		t.Errorf("ProductInfo = %v", product)
	}
	body := res.Body.(map[string]any)
	if _, ok := body["product_info"].(map[string]any); !ok {
		t.Errorf("body product_info = %v", body["product_info"])
	}
}

func TestImageURL_PassesThroughOtherStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"error":"product not found"}`},
		{"ok is not found", http.StatusOK, `{"status":"no such product"}`},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeRequester(t, tt.status, tt.body)

			res, err := imageURL(context.Background(), fake, "summer", "p1", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Info != nil {
				t.Errorf("Info = %+v, want nil", res.Info)
			}
			if res.Result != fake.result {
				t.Error("expected the product fetch result unchanged")
			}
		})
	}
}

func TestImageURL_ImageNotFound(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		imageID string
	}{
		{"unknown image id", productWithImages, "img_z"},
		{"no images", `{"data":{"id":"p1","images":{}}}`, ""},
		{"null images", `{"data":{"id":"p1","images":null}}`, ""},
		{"no data", `{"status":"ok"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeRequester(t, StatusProductFound, tt.body)

			_, err := imageURL(context.Background(), fake, "summer", "p1", &ImageURLOptions{ImageID: tt.imageID})
			if !errors.Is(err, ErrImageNotFound) {
				t.Errorf("err = %v, want ErrImageNotFound", err)
			}
			if !IsNotFoundError(err) {
				t.Error("IsNotFoundError should be true")
			}
		})
	}
}

func TestImageURL_InvalidCropSendsNothing(t *testing.T) {
	fake := newFakeRequester(t, StatusProductFound, productWithImages)

	for _, crop := range []CropBox{
		{TopLeftX: -1, TopLeftY: 0, Width: 10, Height: 10},
		{TopLeftX: 0, TopLeftY: 0, Width: 0, Height: 10},
		{TopLeftX: 0, TopLeftY: 0, Width: 10, Height: -5},
	} {
		_, err := imageURL(context.Background(), fake, "summer", "p1", &ImageURLOptions{Crop: &crop})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("crop %+v: err = %v, want ErrInvalidArgument", crop, err)
		}
	}
	if len(fake.calls) != 0 {
		t.Errorf("expected no requests, got %d", len(fake.calls))
	}
}

func TestImageURL_TransportErrorPropagates(t *testing.T) {
	fake := newFakeRequester(t, StatusProductFound, productWithImages)
	fake.result = nil
	fake.err = &TransportError{Method: http.MethodGet, URL: "https://gw.example.com", Err: errors.New("connection refused")}

	_, err := imageURL(context.Background(), fake, "summer", "p1", nil)
	if !IsTransportError(err) {
		t.Errorf("err = %v, want TransportError", err)
	}
}

func TestSignedImageURL_EscapesKey(t *testing.T) {
	fake := newFakeRequester(t, StatusProductFound, `{}`)
	fake.cfg.APIKey = "a+b/c&d"

	got, err := signedImageURL(fake, "summer", "front view.jpg", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(got, "/images/front%20view.jpg?api_key=a%2Bb%2Fc%26d") {
		t.Errorf("signed URL = %q", got)
	}

	if _, err := signedImageURL(fake, "summer", "", nil); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("empty filename: err = %v", err)
	}
}

func TestFirstImageID(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"document order", `{"images":{"x":{},"a":{}}}`, "x"},
		{"images after other fields", `{"id":"p","tags":["a",{"b":1}],"images":{"k":{}}}`, "k"},
		{"nested images key is ignored", `{"other":{"images":{"z":{}}},"images":{"k":{}}}`, "k"},
		{"empty images", `{"images":{}}`, ""},
		{"null images", `{"images":null}`, ""},
		{"images not an object", `{"images":["a"]}`, ""},
		{"no images", `{"id":"p"}`, ""},
		{"not an object", `[]`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstImageID(json.RawMessage(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("firstImageID(%s) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}

	if _, err := firstImageID(json.RawMessage(`{"images":`)); !IsDecodeError(err) {
		t.Errorf("truncated document: err = %v, want DecodeError", err)
	}
}

func TestCropBoxValidate(t *testing.T) {
	if err := (CropBox{TopLeftX: 0, TopLeftY: 0, Width: 1, Height: 1}).Validate(); err != nil {
		t.Errorf("valid box rejected: %v", err)
	}
	if err := (CropBox{TopLeftX: 5, TopLeftY: -1, Width: 1, Height: 1}).Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative origin: err = %v", err)
	}
}
