package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/bookstore/internal/port"
)

// ErrUpstream marks a provider call that failed, timed out, or returned an
// unexpected shape. Callers decide whether to retry; nothing here does.
var ErrUpstream = errors.New("catalog provider unavailable")

const volumeCacheTTL = 10 * time.Minute

// GoogleBooks is a read-only client for the Google Books volumes API.
// Live volume fetches are collapsed per id with singleflight and cached
// with a short TTL; searches always go to the provider.
type GoogleBooks struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   port.CacheRepository
	group   singleflight.Group
}

func NewGoogleBooks(baseURL, apiKey string, timeout time.Duration, cache port.CacheRepository) *GoogleBooks {
	return &GoogleBooks{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

type volumePayload struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		Categories    []string `json:"categories"`
		AverageRating float64  `json:"averageRating"`
		Description   string   `json:"description"`
		Language      string   `json:"language"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
			Medium    string `json:"medium"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
	SaleInfo struct {
		Saleability string `json:"saleability"`
		RetailPrice struct {
			Amount float64 `json:"amount"`
		} `json:"retailPrice"`
	} `json:"saleInfo"`
}

type searchPayload struct {
	Items []volumePayload `json:"items"`
}

func (p volumePayload) toVolume() port.Volume {
	return port.Volume{
		ID:          p.ID,
		Title:       p.VolumeInfo.Title,
		Authors:     p.VolumeInfo.Authors,
		Categories:  p.VolumeInfo.Categories,
		Rating:      p.VolumeInfo.AverageRating,
		Description: p.VolumeInfo.Description,
		Language:    p.VolumeInfo.Language,
		Thumbnail:   p.VolumeInfo.ImageLinks.Thumbnail,
		MediumImage: p.VolumeInfo.ImageLinks.Medium,
		ForSale:     p.SaleInfo.Saleability != "NOT_FOR_SALE",
		RetailPrice: p.SaleInfo.RetailPrice.Amount,
	}
}

func (g *GoogleBooks) GetVolume(ctx context.Context, externalID string) (*port.Volume, error) {
	if g.cache != nil {
		cached, err := g.cache.GetVolumeJSON(ctx, externalID)
		if err != nil {
			log.Warn().Err(err).Str("volume", externalID).Msg("volume cache read failed")
		}
		if cached != nil {
			var payload volumePayload
			if err := json.Unmarshal(cached, &payload); err == nil {
				vol := payload.toVolume()
				return &vol, nil
			}
		}
	}

	body, err, _ := g.group.Do(externalID, func() (any, error) {
		raw, err := g.fetch(ctx, "/volumes/"+url.PathEscape(externalID), nil)
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	raw := body.([]byte)

	var payload volumePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode volume %s: %v", ErrUpstream, externalID, err)
	}

	if g.cache != nil {
		if err := g.cache.SetVolumeJSON(ctx, externalID, raw, volumeCacheTTL); err != nil {
			log.Warn().Err(err).Str("volume", externalID).Msg("volume cache write failed")
		}
	}

	vol := payload.toVolume()
	return &vol, nil
}

func (g *GoogleBooks) SearchByAuthor(ctx context.Context, author string) ([]port.Volume, error) {
	raw, err := g.fetch(ctx, "/volumes", url.Values{"q": {"inauthor:" + author}})
	if err != nil {
		return nil, err
	}

	var payload searchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrUpstream, err)
	}

	vols := make([]port.Volume, 0, len(payload.Items))
	for _, item := range payload.Items {
		vols = append(vols, item.toVolume())
	}
	return vols, nil
}

func (g *GoogleBooks) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if g.apiKey != "" {
		query.Set("key", g.apiKey)
	}
	endpoint := g.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned %d", ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	return raw, nil
}
