package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"torrentfront/pkg/models"
)

const serviceName = "torrentfront.Directory"

type ListRequest struct {
	Page      int32    `json:"page"`
	Limit     int32    `json:"limit"`
	Qualities []string `json:"qualities,omitempty"`
	Audio     []string `json:"audio,omitempty"`
	Subtitles []string `json:"subtitles,omitempty"`
	Kinds     []string `json:"kinds,omitempty"`
	Sort      string   `json:"sort,omitempty"`
	Order     string   `json:"order,omitempty"`
}

type ListResponse struct {
	Torrents   []models.Torrent `json:"torrents"`
	Total      int32            `json:"total"`
	TotalPages int32            `json:"total_pages"`
	Pages      []int            `json:"pages"`
	Source     string           `json:"source"`
}

type GetRequest struct {
	ID int64 `json:"id"`
}

type TorrentResponse struct {
	Torrent models.Torrent `json:"torrent"`
	Source  string         `json:"source"`
}

type SearchRequest struct {
	Query     string `json:"query"`
	Category  string `json:"category,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

type SearchResponse struct {
	Torrents []models.Torrent `json:"torrents"`
	Source   string           `json:"source"`
}

type StatsResponse struct {
	Stats  models.TorrentStats `json:"stats"`
	Source string              `json:"source"`
}

type DirectoryServer interface {
	ListTorrents(context.Context, *ListRequest) (*ListResponse, error)
	GetTorrent(context.Context, *GetRequest) (*TorrentResponse, error)
	SearchTorrents(context.Context, *SearchRequest) (*SearchResponse, error)
	GetStats(context.Context, *GetRequest) (*StatsResponse, error)
}

func unary[Req, Resp any](method string, call func(DirectoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DirectoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DirectoryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListTorrents", DirectoryServer.ListTorrents),
		unary("GetTorrent", DirectoryServer.GetTorrent),
		unary("SearchTorrents", DirectoryServer.SearchTorrents),
		unary("GetStats", DirectoryServer.GetStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "torrentfront/directory",
}

func RegisterDirectoryServer(s grpc.ServiceRegistrar, srv DirectoryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the Directory service with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTorrents(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, "ListTorrents", in, opts)
}

func (c *Client) GetTorrent(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*TorrentResponse, error) {
	return invoke[TorrentResponse](ctx, c.cc, "GetTorrent", in, opts)
}

func (c *Client) SearchTorrents(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c.cc, "SearchTorrents", in, opts)
}

func (c *Client) GetStats(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c.cc, "GetStats", in, opts)
}
