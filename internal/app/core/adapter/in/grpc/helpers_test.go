package grpc_test

import (
	"context"

	"google.golang.org/grpc/metadata"

	grpc_adapter "github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/in/grpc"
)

func metadataContext(ctx context.Context, username, credential string) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		grpc_adapter.MetadataUsername, username,
		grpc_adapter.MetadataCredential, credential,
	)
}
