package service

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "calendar.v1.CalendarService"

// CalendarServer — серверная сторона calendar.v1.CalendarService.
type CalendarServer interface {
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	CreateReservation(context.Context, *CreateReservationRequest) (*ReservationResponse, error)
	UpdateReservation(context.Context, *UpdateReservationRequest) (*ReservationResponse, error)
	CancelReservation(context.Context, *CancelReservationRequest) (*CancelReservationResponse, error)
	ListReservations(context.Context, *ListReservationsRequest) (*ListReservationsResponse, error)
	ListDepartments(context.Context, *ListDepartmentsRequest) (*ListDepartmentsResponse, error)
	ListDoctors(context.Context, *ListDoctorsRequest) (*ListDoctorsResponse, error)
	ListHolidays(context.Context, *ListHolidaysRequest) (*ListHolidaysResponse, error)
}

// CalendarServiceDesc описывает сервис вручную: сообщения идут в JSON, не в protobuf.
var CalendarServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalendarServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetAvailability", CalendarServer.GetAvailability),
		unary("CreateReservation", CalendarServer.CreateReservation),
		unary("UpdateReservation", CalendarServer.UpdateReservation),
		unary("CancelReservation", CalendarServer.CancelReservation),
		unary("ListReservations", CalendarServer.ListReservations),
		unary("ListDepartments", CalendarServer.ListDepartments),
		unary("ListDoctors", CalendarServer.ListDoctors),
		unary("ListHolidays", CalendarServer.ListHolidays),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterCalendarServer(s grpc.ServiceRegistrar, srv CalendarServer) {
	s.RegisterService(&CalendarServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(CalendarServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CalendarServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CalendarServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client — клиент calendar.v1.CalendarService с JSON-кодеком.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*GetAvailabilityResponse, error) {
	return invoke[GetAvailabilityResponse](ctx, c, "GetAvailability", in, opts)
}

func (c *Client) CreateReservation(ctx context.Context, in *CreateReservationRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "CreateReservation", in, opts)
}

func (c *Client) UpdateReservation(ctx context.Context, in *UpdateReservationRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "UpdateReservation", in, opts)
}

func (c *Client) CancelReservation(ctx context.Context, in *CancelReservationRequest, opts ...grpc.CallOption) (*CancelReservationResponse, error) {
	return invoke[CancelReservationResponse](ctx, c, "CancelReservation", in, opts)
}

func (c *Client) ListReservations(ctx context.Context, in *ListReservationsRequest, opts ...grpc.CallOption) (*ListReservationsResponse, error) {
	return invoke[ListReservationsResponse](ctx, c, "ListReservations", in, opts)
}

func (c *Client) ListDepartments(ctx context.Context, in *ListDepartmentsRequest, opts ...grpc.CallOption) (*ListDepartmentsResponse, error) {
	return invoke[ListDepartmentsResponse](ctx, c, "ListDepartments", in, opts)
}

func (c *Client) ListDoctors(ctx context.Context, in *ListDoctorsRequest, opts ...grpc.CallOption) (*ListDoctorsResponse, error) {
	return invoke[ListDoctorsResponse](ctx, c, "ListDoctors", in, opts)
}

func (c *Client) ListHolidays(ctx context.Context, in *ListHolidaysRequest, opts ...grpc.CallOption) (*ListHolidaysResponse, error) {
	return invoke[ListHolidaysResponse](ctx, c, "ListHolidays", in, opts)
}
