package grpcserver

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"torrentfront/internal/directory"
	"torrentfront/internal/query"
	"torrentfront/pkg/models"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

type Server struct {
	Dir *directory.Directory
}

func NewServer(dir *directory.Directory) *Server {
	return &Server{Dir: dir}
}

func (s *Server) ListTorrents(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	page, limit := int(req.Page), int(req.Limit)
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if page < 1 || limit < 1 || limit > maxLimit {
		return nil, status.Errorf(codes.InvalidArgument, "page must be >= 1 and limit 1-%d", maxLimit)
	}

	sort := query.DefaultSort()
	if req.Sort != "" {
		f, ok := query.ParseSortField(req.Sort)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "invalid sort field")
		}
		sort.Field = f
	}
	if req.Order != "" {
		o, ok := query.ParseSortOrder(req.Order)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "invalid sort order")
		}
		sort.Order = o
	}

	res, err := s.Dir.ListPage(ctx, page, limit)
	if err != nil {
		return nil, toStatus(err)
	}

	filter := query.Filter{Qualities: req.Qualities, Audio: req.Audio, Subtitles: req.Subtitles, Kinds: req.Kinds}
	totalPages := query.TotalPages(res.Total, limit)
	return &ListResponse{
		Torrents:   query.Apply(res.Torrents, filter, sort),
		Total:      int32(res.Total),
		TotalPages: int32(totalPages),
		Pages:      query.PageWindow(page, totalPages),
		Source:     string(res.Source),
	}, nil
}

func (s *Server) GetTorrent(ctx context.Context, req *GetRequest) (*TorrentResponse, error) {
	if req.ID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	t, src, err := s.Dir.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TorrentResponse{Torrent: t, Source: string(src)}, nil
}

func (s *Server) SearchTorrents(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return nil, status.Error(codes.InvalidArgument, "query required")
	}
	var kind models.MediaKind
	if req.MediaType != "" {
		k, ok := models.ParseMediaKind(req.MediaType)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "media_type must be movie or tv")
		}
		kind = k
	}

	ts, src, err := s.Dir.Search(ctx, q, strings.TrimSpace(req.Category), kind)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SearchResponse{Torrents: ts, Source: string(src)}, nil
}

func (s *Server) GetStats(ctx context.Context, req *GetRequest) (*StatsResponse, error) {
	if req.ID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	st, src, err := s.Dir.TorrentStats(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &StatsResponse{Stats: st, Source: string(src)}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, directory.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, directory.ErrUpstreamUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		log.WithError(err).Error("grpc call failed")
		return status.Error(codes.Internal, "internal error")
	}
}

// LoggingInterceptor logs every unary call with its code and duration.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	entry := log.WithFields(log.Fields{
		"method":      info.FullMethod,
		"code":        status.Code(err).String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.Warn("grpc request")
	} else {
		entry.Info("grpc request")
	}
	return resp, err
}
