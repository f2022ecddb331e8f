// Package musicbrainz implements the provider interface over a
// MusicBrainz-compatible ws/2 JSON API. All requests go through the
// shared cached fetcher, so prior results remain available offline.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/feature/library"
	"github.com/vonnieda/dimple/feature/providers/fetch"
)

// Provider queries a MusicBrainz-compatible API.
type Provider struct {
	base    string
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// New creates a provider against the given ws/2 base URL.
func New(base string, fetcher *fetch.Fetcher, logger *zap.Logger) *Provider {
	return &Provider{base: base, fetcher: fetcher, logger: logger}
}

// Name implements library.Provider.
func (p *Provider) Name() string { return "musicbrainz" }

// Get implements library.Provider. Entities without a musicbrainz known
// id yield nil, not an error.
func (p *Provider) Get(ctx context.Context, e model.Entity, mode library.NetworkMode) (model.Entity, error) {
	mbid := e.ExternalIDs()[model.SourceMusicBrainz]
	if mbid == "" {
		return nil, nil
	}

	switch e.Kind() {
	case model.KindArtist:
		return p.getArtist(ctx, mbid, mode)
	case model.KindReleaseGroup:
		return p.getReleaseGroup(ctx, mbid, mode)
	case model.KindRecording:
		return p.getRecording(ctx, mbid, mode)
	default:
		return nil, nil
	}
}

// List implements library.Provider. Only genre listings scoped to an
// artist are supported; everything else is empty.
func (p *Provider) List(ctx context.Context, kind model.Kind, relatedTo model.Entity, mode library.NetworkMode) ([]model.Entity, error) {
	if kind != model.KindGenre || relatedTo == nil {
		return nil, nil
	}
	mbid := relatedTo.ExternalIDs()[model.SourceMusicBrainz]
	if mbid == "" {
		return nil, nil
	}

	artist, err := p.getArtist(ctx, mbid, mode)
	if err != nil || artist == nil {
		return nil, err
	}
	var out []model.Entity
	for _, g := range artist.Genres {
		out = append(out, g)
	}
	return out, nil
}

// Search implements library.Provider, querying artists and release
// groups.
func (p *Provider) Search(ctx context.Context, query string, mode library.NetworkMode) ([]model.Entity, error) {
	var out []model.Entity

	artists, err := p.searchArtists(ctx, query, mode)
	if err != nil {
		return nil, err
	}
	out = append(out, artists...)

	groups, err := p.searchReleaseGroups(ctx, query, mode)
	if err != nil {
		return nil, err
	}
	out = append(out, groups...)

	return out, nil
}

type mbGenre struct {
	Name           string `json:"name"`
	Disambiguation string `json:"disambiguation"`
}

type mbRelation struct {
	URL struct {
		Resource string `json:"resource"`
	} `json:"url"`
}

type mbArtist struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Disambiguation string       `json:"disambiguation"`
	Country        string       `json:"country"`
	Genres         []mbGenre    `json:"genres"`
	Relations      []mbRelation `json:"relations"`
}

type mbReleaseGroup struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Disambiguation   string    `json:"disambiguation"`
	PrimaryType      string    `json:"primary-type"`
	FirstReleaseDate string    `json:"first-release-date"`
	Genres           []mbGenre `json:"genres"`
	ArtistCredit     []struct {
		Artist mbArtist `json:"artist"`
	} `json:"artist-credit"`
}

type mbRecording struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Disambiguation string    `json:"disambiguation"`
	Length         int       `json:"length"`
	Genres         []mbGenre `json:"genres"`
}

func (p *Provider) getArtist(ctx context.Context, mbid string, mode library.NetworkMode) (*model.Artist, error) {
	u := fmt.Sprintf("%s/artist/%s?fmt=json&inc=genres+url-rels", p.base, mbid)
	data, err := p.fetcher.Get(ctx, u, mode)
	if err != nil {
		return nil, err
	}
	var a mbArtist
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artist %s: %w", mbid, err)
	}
	return decodeArtist(a), nil
}

func (p *Provider) getReleaseGroup(ctx context.Context, mbid string, mode library.NetworkMode) (*model.ReleaseGroup, error) {
	u := fmt.Sprintf("%s/release-group/%s?fmt=json&inc=genres+artist-credits", p.base, mbid)
	data, err := p.fetcher.Get(ctx, u, mode)
	if err != nil {
		return nil, err
	}
	var g mbReleaseGroup
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode release group %s: %w", mbid, err)
	}
	return decodeReleaseGroup(g), nil
}

func (p *Provider) getRecording(ctx context.Context, mbid string, mode library.NetworkMode) (*model.Recording, error) {
	u := fmt.Sprintf("%s/recording/%s?fmt=json&inc=genres", p.base, mbid)
	data, err := p.fetcher.Get(ctx, u, mode)
	if err != nil {
		return nil, err
	}
	var r mbRecording
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode recording %s: %w", mbid, err)
	}
	return decodeRecording(r), nil
}

func (p *Provider) searchArtists(ctx context.Context, query string, mode library.NetworkMode) ([]model.Entity, error) {
	u := fmt.Sprintf("%s/artist?fmt=json&limit=10&query=%s", p.base, url.QueryEscape(query))
	data, err := p.fetcher.Get(ctx, u, mode)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Artists []mbArtist `json:"artists"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode artist search: %w", err)
	}
	var out []model.Entity
	for _, a := range payload.Artists {
		out = append(out, decodeArtist(a))
	}
	return out, nil
}

func (p *Provider) searchReleaseGroups(ctx context.Context, query string, mode library.NetworkMode) ([]model.Entity, error) {
	u := fmt.Sprintf("%s/release-group?fmt=json&limit=10&query=%s", p.base, url.QueryEscape(query))
	data, err := p.fetcher.Get(ctx, u, mode)
	if err != nil {
		return nil, err
	}
	var payload struct {
		ReleaseGroups []mbReleaseGroup `json:"release-groups"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode release group search: %w", err)
	}
	var out []model.Entity
	for _, g := range payload.ReleaseGroups {
		out = append(out, decodeReleaseGroup(g))
	}
	return out, nil
}

func decodeArtist(a mbArtist) *model.Artist {
	artist := &model.Artist{
		Name:           a.Name,
		Disambiguation: a.Disambiguation,
		Country:        a.Country,
	}
	artist.KnownIDs = model.IDSet{model.SourceMusicBrainz: a.ID}
	for _, g := range a.Genres {
		artist.Genres = append(artist.Genres, decodeGenre(g))
	}
	for _, rel := range a.Relations {
		if rel.URL.Resource != "" {
			artist.Links = artist.Links.Add(rel.URL.Resource)
		}
	}
	return artist
}

func decodeReleaseGroup(g mbReleaseGroup) *model.ReleaseGroup {
	group := &model.ReleaseGroup{
		Title:            g.Title,
		Disambiguation:   g.Disambiguation,
		PrimaryType:      g.PrimaryType,
		FirstReleaseDate: g.FirstReleaseDate,
	}
	group.KnownIDs = model.IDSet{model.SourceMusicBrainz: g.ID}
	for _, credit := range g.ArtistCredit {
		group.Artists = append(group.Artists, decodeArtist(credit.Artist))
	}
	for _, genre := range g.Genres {
		group.Genres = append(group.Genres, decodeGenre(genre))
	}
	return group
}

func decodeRecording(r mbRecording) *model.Recording {
	rec := &model.Recording{
		Title:          r.Title,
		Disambiguation: r.Disambiguation,
		LengthMS:       r.Length,
	}
	rec.KnownIDs = model.IDSet{model.SourceMusicBrainz: r.ID}
	for _, g := range r.Genres {
		rec.Genres = append(rec.Genres, decodeGenre(g))
	}
	return rec
}

func decodeGenre(g mbGenre) *model.Genre {
	return &model.Genre{
		Name:           g.Name,
		Disambiguation: g.Disambiguation,
	}
}
