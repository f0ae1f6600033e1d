package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey           = "enforcer"
	serviceName            = "focus.enforcer.v1.Enforcer"
	jsonCodecName          = "json"
	methodInstallOrReplace = "/" + serviceName + "/InstallOrReplace"
	methodListInstalled    = "/" + serviceName + "/ListInstalled"
	methodRemove           = "/" + serviceName + "/Remove"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FOCUS_ENFORCER_PLUGIN",
	MagicCookieValue: "focus",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Rule struct {
	ID            int32    `json:"id"`
	Domain        string   `json:"domain"`
	Action        string   `json:"action"`
	ResourceTypes []string `json:"resource_types"`
	Priority      int32    `json:"priority"`
}

type InstallRequest struct {
	Rule Rule `json:"rule"`
}

type ListResponse struct {
	Rules []Rule `json:"rules"`
}

type RemoveRequest struct {
	IDs []int32 `json:"ids"`
}

type EnforcerServer interface {
	InstallOrReplace(ctx context.Context, in *InstallRequest) (*Empty, error)
	ListInstalled(ctx context.Context, in *Empty) (*ListResponse, error)
	Remove(ctx context.Context, in *RemoveRequest) (*Empty, error)
}

type EnforcerClient interface {
	InstallOrReplace(ctx context.Context, in *InstallRequest) error
	ListInstalled(ctx context.Context) (*ListResponse, error)
	Remove(ctx context.Context, in *RemoveRequest) error
}

type enforcerClient struct {
	conn *grpc.ClientConn
}

func NewEnforcerClient(conn *grpc.ClientConn) EnforcerClient {
	return &enforcerClient{conn: conn}
}

func (c *enforcerClient) InstallOrReplace(ctx context.Context, in *InstallRequest) error {
	return c.conn.Invoke(ctx, methodInstallOrReplace, in, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

func (c *enforcerClient) ListInstalled(ctx context.Context) (*ListResponse, error) {
	out := &ListResponse{}
	if err := c.conn.Invoke(ctx, methodListInstalled, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *enforcerClient) Remove(ctx context.Context, in *RemoveRequest) error {
	return c.conn.Invoke(ctx, methodRemove, in, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

// unary builds a method handler that decodes a *Req and routes it through
// the optional server interceptor.
func unary[Req any, Resp any](name, fullMethod string, call func(context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type %T", req)
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterEnforcerServer(server grpc.ServiceRegistrar, impl EnforcerServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*EnforcerServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("InstallOrReplace", methodInstallOrReplace, impl.InstallOrReplace),
			unary("ListInstalled", methodListInstalled, impl.ListInstalled),
			unary("Remove", methodRemove, impl.Remove),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "focus/enforcer-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl EnforcerServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterEnforcerServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewEnforcerClient(conn), nil
}

func PluginMap(impl EnforcerServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
