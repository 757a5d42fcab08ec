package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// StatusProductFound is the status the product endpoint answers with when the
// product exists and the response carries its document. Any other status,
// 200 included, means the body is not a product.
const StatusProductFound = http.StatusAccepted

// CropBox selects a region of a catalog image.
type CropBox struct {
	TopLeftX int `json:"top_left_x"`
	TopLeftY int `json:"top_left_y"`
	Width    int `json:"width"`
	Height   int `json:"height"`
}

// Validate checks that the box has a non-negative origin and a positive size.
func (b CropBox) Validate() error {
	if b.TopLeftX < 0 || b.TopLeftY < 0 {
		return invalidArgument("crop origin must not be negative (got %d,%d)", b.TopLeftX, b.TopLeftY)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return invalidArgument("crop width and height must be positive (got %dx%d)", b.Width, b.Height)
	}
	return nil
}

// ImageURLOptions controls ImageURL.
type ImageURLOptions struct {
	// ImageID picks the image; empty means the first image of the product in
	// the order the service lists them.
	ImageID string
	// ReturnProductInfo includes the product document in the result.
	ReturnProductInfo bool
	// Crop, when set, adds the crop box to the signed URL.
	Crop *CropBox
}

// ImageInfo describes one product image and a directly usable URL for it.
type ImageInfo struct {
	ID            string          `json:"id"`
	ImageID       string          `json:"image_id"`
	ImageURL      string          `json:"image_url"`
	ImageFilename string          `json:"image_filename"`
	ImageURLLocal string          `json:"image_url_local"`
	ProductInfo   json.RawMessage `json:"product_info,omitempty"`
}

// ImageURLResult is the outcome of ImageURL. Info is nil when the product
// fetch did not return StatusProductFound; Result is then the fetch result,
// unchanged.
type ImageURLResult struct {
	*Result
	Info *ImageInfo
}

type productImage struct {
	ImageURL      string `json:"image_url"`
	ImageFilename string `json:"image_filename"`
}

// ImageURL fetches a product and derives a signed gateway URL for one of its
// images, optionally cropped.
func (s CatalogService) ImageURL(ctx context.Context, name, id string, opts *ImageURLOptions) (*ImageURLResult, error) {
	return imageURL(ctx, s.Client, name, id, opts)
}

func imageURL(ctx context.Context, r Requester, name, id string, opts *ImageURLOptions) (*ImageURLResult, error) {
	var o ImageURLOptions
	if opts != nil {
		o = *opts
	}
	if o.Crop != nil {
		if err := o.Crop.Validate(); err != nil {
			return nil, err
		}
	}

	res, err := getProduct(ctx, r, name, id)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != StatusProductFound {
		return &ImageURLResult{Result: res}, nil
	}

	var product struct {
		Data json.RawMessage `json:"data"`
	}
	if err := res.Decode(&product); err != nil {
		return nil, err
	}
	var doc struct {
		Images map[string]productImage `json:"images"`
	}
	if len(product.Data) > 0 {
		if err := json.Unmarshal(product.Data, &doc); err != nil {
			return nil, &DecodeError{StatusCode: res.StatusCode, Snippet: snippet(product.Data), Err: err}
		}
	}

	imageID := o.ImageID
	if imageID == "" {
		imageID, err = firstImageID(product.Data)
		if err != nil {
			return nil, err
		}
		if imageID == "" {
			return nil, fmt.Errorf("%w: product %q has no images", ErrImageNotFound, id)
		}
	}
	img, ok := doc.Images[imageID]
	if !ok {
		return nil, fmt.Errorf("%w: product %q has no image %q", ErrImageNotFound, id, imageID)
	}

	local, err := signedImageURL(r, name, img.ImageFilename, o.Crop)
	if err != nil {
		return nil, err
	}

	info := &ImageInfo{
		ID:            id,
		ImageID:       imageID,
		ImageURL:      img.ImageURL,
		ImageFilename: img.ImageFilename,
		ImageURLLocal: local,
	}
	if o.ReturnProductInfo {
		info.ProductInfo = product.Data
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image info: %w", err)
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to encode image info: %w", err)
	}

	return &ImageURLResult{
		Result: &Result{
			StatusCode: res.StatusCode,
			Header:     res.Header,
			Body:       body,
			Raw:        raw,
		},
		Info: info,
	}, nil
}

// firstImageID returns the first key of the "images" object of a product
// document in document order, or "" when there is none. encoding/json maps
// lose key order, so the document is walked token by token.
func firstImageID(data json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return "", &DecodeError{StatusCode: StatusProductFound, Snippet: snippet(data), Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", &DecodeError{StatusCode: StatusProductFound, Snippet: snippet(data), Err: err}
		}
		key, _ := keyTok.(string)
		if key != "images" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return "", &DecodeError{StatusCode: StatusProductFound, Snippet: snippet(data), Err: err}
			}
			continue
		}
		tok, err := dec.Token()
		if err != nil {
			return "", &DecodeError{StatusCode: StatusProductFound, Snippet: snippet(data), Err: err}
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' || !dec.More() {
			return "", nil
		}
		first, err := dec.Token()
		if err != nil {
			return "", &DecodeError{StatusCode: StatusProductFound, Snippet: snippet(data), Err: err}
		}
		id, _ := first.(string)
		return id, nil
	}
	return "", nil
}

// signedImageURL builds the gateway URL of a catalog image with the API key
// embedded, so it can be used where headers cannot be set (img tags, shells).
// Crop parameters follow in the fixed order top_left_x, top_left_y, width,
// height.
func signedImageURL(r Requester, catalog, filename string, crop *CropBox) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("%w: image has no filename", ErrImageNotFound)
	}
	path, err := epCatalogImage.expand(pathVars{"catalog": catalog, "image_filename": filename})
	if err != nil {
		return "", err
	}
	u, err := r.resolve(path)
	if err != nil {
		return "", err
	}
	var q strings.Builder
	q.WriteString("api_key=")
	q.WriteString(url.QueryEscape(r.Config().APIKey))
	if crop != nil {
		fmt.Fprintf(&q, "&top_left_x=%d&top_left_y=%d&width=%d&height=%d",
			crop.TopLeftX, crop.TopLeftY, crop.Width, crop.Height)
	}
	u.RawQuery = q.String()
	return u.String(), nil
}
