package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/buildinfo"
	"github.com/matzehuels/atlaspack/pkg/cache"
	apperrors "github.com/matzehuels/atlaspack/pkg/errors"
	"github.com/matzehuels/atlaspack/pkg/pipeline"
	"github.com/matzehuels/atlaspack/pkg/sprite"
)

type blockRequest struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type packRequest struct {
	Blocks  []blockRequest `json:"blocks"`
	Growth  string         `json:"growth"`
	Order   string         `json:"order"`
	Padding int            `json:"padding"`
	Pow2    bool           `json:"pow2"`
}

type size struct {
	W int `json:"w"`
	H int `json:"h"`
}

type frameResponse struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

type packResponse struct {
	ID     string          `json:"id"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Canvas size            `json:"canvas"`
	Frames []frameResponse `json:"frames"`
	Stats  atlas.Stats     `json:"stats"`
	Cached bool            `json:"cached"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, string(apperrors.ErrCodeInvalidInput),
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidInput), "invalid request body: "+err.Error())
		return
	}

	if len(req.Blocks) > s.maxBlocks {
		writeError(w, http.StatusRequestEntityTooLarge, string(apperrors.ErrCodeInvalidInput),
			fmt.Sprintf("too many blocks: %d (max %d)", len(req.Blocks), s.maxBlocks))
		return
	}
	sprites, err := blockSprites(req.Blocks)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts := pipeline.Options{
		Padding: req.Padding,
		Pow2:    req.Pow2,
		Growth:  req.Growth,
		Order:   req.Order,
	}
	l, hit, err := s.runner.GenerateLayoutWithCacheInfo(r.Context(), sprites, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	canvas := l.Canvas()
	resp := packResponse{
		ID:     RequestID(r.Context()),
		Width:  l.Width,
		Height: l.Height,
		Canvas: size{W: canvas.X, H: canvas.Y},
		Frames: make([]frameResponse, len(l.Frames)),
		Stats:  l.Stats(),
		Cached: hit,
	}
	for i, f := range l.Frames {
		resp.Frames[i] = frameResponse{Name: f.Name, X: f.X, Y: f.Y, W: f.W, H: f.H}
	}
	writeJSON(w, http.StatusOK, resp)
}

// blockSprites validates requested blocks and turns them into sprites. A
// sprite's hash covers only its size, so equal size lists share a cached
// layout whatever the blocks are called.
func blockSprites(blocks []blockRequest) ([]sprite.Sprite, error) {
	if len(blocks) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "at least one block is required")
	}
	sprites := make([]sprite.Sprite, len(blocks))
	for i, b := range blocks {
		if err := apperrors.ValidateName(b.Name); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "block %d: %s", i, apperrors.UserMessage(err))
		}
		if b.Width <= 0 || b.Height <= 0 || b.Width > MaxSide || b.Height > MaxSide {
			return nil, apperrors.New(apperrors.ErrCodeInvalidDimension,
				"block %d (%s) has size %dx%d, sides must be between 1 and %d", i, b.Name, b.Width, b.Height, MaxSide)
		}
		sprites[i] = sprite.Sprite{
			Name:   b.Name,
			Hash:   cache.Hash(fmt.Appendf(nil, "%dx%d", b.Width, b.Height)),
			Width:  b.Width,
			Height: b.Height,
		}
	}
	return sprites, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	status := statusFor(code)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("pack failed", "id", RequestID(r.Context()), "err", err)
	}
	writeError(w, status, string(code), apperrors.UserMessage(err))
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidDimension, apperrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
