package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const ServiceName = "healthtick.scheduling.v1.SchedulingService"

type Client struct {
	ID    string `json:"id"`
	Name  string `json:"clientName"`
	Phone string `json:"phone"`
}

type Booking struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Recurring  bool   `json:"recurring"`
	ClientName string `json:"clientName"`
	Phone      string `json:"phone"`
	CallType   string `json:"callType"`
}

type Slot struct {
	Start   string   `json:"start"`
	Label   string   `json:"label"`
	Booked  bool     `json:"booked"`
	Anchor  bool     `json:"anchor,omitempty"`
	Booking *Booking `json:"booking,omitempty"`
}

type Occurrence struct {
	ID         string                 `json:"id"`
	BookingID  string                 `json:"bookingId"`
	ClientName string                 `json:"clientName"`
	Phone      string                 `json:"phone"`
	CallType   string                 `json:"callType"`
	StartTime  *timestamppb.Timestamp `json:"startTime"`
	EndTime    *timestamppb.Timestamp `json:"endTime"`
}

type GetDayRequest struct {
	Date string `json:"date"`
}

type GetDayResponse struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

type ListClientsRequest struct {
	Query string `json:"query"`
}

type ListClientsResponse struct {
	Clients []Client `json:"clients"`
}

type BookSlotRequest struct {
	Date     string `json:"date"`
	Slot     string `json:"slot"`
	Phone    string `json:"phone"`
	CallType string `json:"callType"`
}

type BookSlotResponse struct {
	Booking Booking `json:"booking"`
}

type DeleteBookingRequest struct {
	ID string `json:"id"`
}

type DeleteBookingResponse struct{}

type ListUpcomingRequest struct {
	Phone       string                 `json:"phone"`
	WindowStart *timestamppb.Timestamp `json:"windowStart"`
	WindowEnd   *timestamppb.Timestamp `json:"windowEnd"`
}

type ListUpcomingResponse struct {
	Occurrences []Occurrence `json:"occurrences"`
}

type SchedulingServiceServer interface {
	GetDay(context.Context, *GetDayRequest) (*GetDayResponse, error)
	ListClients(context.Context, *ListClientsRequest) (*ListClientsResponse, error)
	BookSlot(context.Context, *BookSlotRequest) (*BookSlotResponse, error)
	DeleteBooking(context.Context, *DeleteBookingRequest) (*DeleteBookingResponse, error)
	ListUpcoming(context.Context, *ListUpcomingRequest) (*ListUpcomingResponse, error)
}

func RegisterSchedulingServiceServer(s grpc.ServiceRegistrar, srv SchedulingServiceServer) {
	s.RegisterService(&schedulingServiceDesc, srv)
}

var schedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDay", Handler: unaryHandler("GetDay", SchedulingServiceServer.GetDay)},
		{MethodName: "ListClients", Handler: unaryHandler("ListClients", SchedulingServiceServer.ListClients)},
		{MethodName: "BookSlot", Handler: unaryHandler("BookSlot", SchedulingServiceServer.BookSlot)},
		{MethodName: "DeleteBooking", Handler: unaryHandler("DeleteBooking", SchedulingServiceServer.DeleteBooking)},
		{MethodName: "ListUpcoming", Handler: unaryHandler("ListUpcoming", SchedulingServiceServer.ListUpcoming)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "healthtick/scheduling/v1/scheduling.json",
}

func unaryHandler[Req, Resp any](method string, call func(SchedulingServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SchedulingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SchedulingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SchedulingClient calls the scheduling service over the JSON codec.
type SchedulingClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulingClient(cc grpc.ClientConnInterface) *SchedulingClient {
	return &SchedulingClient{cc: cc}
}

func (c *SchedulingClient) GetDay(ctx context.Context, in *GetDayRequest, opts ...grpc.CallOption) (*GetDayResponse, error) {
	out := new(GetDayResponse)
	if err := c.invoke(ctx, "GetDay", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SchedulingClient) ListClients(ctx context.Context, in *ListClientsRequest, opts ...grpc.CallOption) (*ListClientsResponse, error) {
	out := new(ListClientsResponse)
	if err := c.invoke(ctx, "ListClients", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SchedulingClient) BookSlot(ctx context.Context, in *BookSlotRequest, opts ...grpc.CallOption) (*BookSlotResponse, error) {
	out := new(BookSlotResponse)
	if err := c.invoke(ctx, "BookSlot", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SchedulingClient) DeleteBooking(ctx context.Context, in *DeleteBookingRequest, opts ...grpc.CallOption) (*DeleteBookingResponse, error) {
	out := new(DeleteBookingResponse)
	if err := c.invoke(ctx, "DeleteBooking", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SchedulingClient) ListUpcoming(ctx context.Context, in *ListUpcomingRequest, opts ...grpc.CallOption) (*ListUpcomingResponse, error) {
	out := new(ListUpcomingResponse)
	if err := c.invoke(ctx, "ListUpcoming", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SchedulingClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}
