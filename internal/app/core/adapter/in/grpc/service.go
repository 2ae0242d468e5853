package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPC 服務名稱，訊息一律使用 google.protobuf.Struct
const ServiceName = "atm.v1.Ledger"

// 完整方法名稱，client 與 interceptor 共用
const (
	MethodRegister     = "/" + ServiceName + "/Register"
	MethodAuthenticate = "/" + ServiceName + "/Authenticate"
	MethodDeposit      = "/" + ServiceName + "/Deposit"
	MethodWithdraw     = "/" + ServiceName + "/Withdraw"
	MethodBalance      = "/" + ServiceName + "/Balance"
	MethodHistory      = "/" + ServiceName + "/History"
)

// LedgerServer 是 atm.v1.Ledger 的伺服端介面
type LedgerServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Authenticate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Balance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler 解碼請求並經過 interceptor 呼叫對應方法
func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc atm.v1.Ledger 的服務描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, LedgerServer.Register)},
		{MethodName: "Authenticate", Handler: unaryHandler(MethodAuthenticate, LedgerServer.Authenticate)},
		{MethodName: "Deposit", Handler: unaryHandler(MethodDeposit, LedgerServer.Deposit)},
		{MethodName: "Withdraw", Handler: unaryHandler(MethodWithdraw, LedgerServer.Withdraw)},
		{MethodName: "Balance", Handler: unaryHandler(MethodBalance, LedgerServer.Balance)},
		{MethodName: "History", Handler: unaryHandler(MethodHistory, LedgerServer.History)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "atm/v1/ledger.proto",
}

// RegisterLedgerServer 註冊服務
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
