// Package ledgerclient 透過 gRPC 呼叫遠端 atm.v1.Ledger 服務。
//
// Authenticate 成功後 client 會記住該帳號的 PIN，之後的存提款、查詢都以 metadata 帶上；
// 呼叫 Forget 後即不再帶上。
package ledgerclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	grpc_adapter "github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

type Client struct {
	conn grpc.ClientConnInterface

	mu    sync.RWMutex
	creds map[string]string
}

func New(conn grpc.ClientConnInterface) *Client {
	return &Client{
		conn:  conn,
		creds: make(map[string]string),
	}
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]interface{}) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, grpc_adapter.ErrorFromStatus(err)
	}
	return resp, nil
}

// withCredentials 帶上已驗證帳號的登入資訊；未驗證時不帶，由伺服端回 ErrNotAuthenticated
func (c *Client) withCredentials(ctx context.Context, username string) context.Context {
	c.mu.RLock()
	credential, ok := c.creds[username]
	c.mu.RUnlock()
	if !ok {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx,
		grpc_adapter.MetadataUsername, username,
		grpc_adapter.MetadataCredential, credential,
	)
}

// Register 開戶
func (c *Client) Register(ctx context.Context, username, credential, rawBalance string) error {
	_, err := c.invoke(ctx, grpc_adapter.MethodRegister, map[string]interface{}{
		grpc_adapter.FieldUsername:       username,
		grpc_adapter.FieldCredential:     credential,
		grpc_adapter.FieldInitialBalance: rawBalance,
	})
	return err
}

// Authenticate 驗證帳號；連線錯誤視為驗證失敗
func (c *Client) Authenticate(ctx context.Context, username, credential string) bool {
	resp, err := c.invoke(ctx, grpc_adapter.MethodAuthenticate, map[string]interface{}{
		grpc_adapter.FieldUsername:   username,
		grpc_adapter.FieldCredential: credential,
	})
	if err != nil || !resp.GetFields()[grpc_adapter.FieldAuthenticated].GetBoolValue() {
		return false
	}
	c.mu.Lock()
	c.creds[username] = credential
	c.mu.Unlock()
	return true
}

// Forget 清除已快取的登入資訊
func (c *Client) Forget(username string) {
	c.mu.Lock()
	delete(c.creds, username)
	c.mu.Unlock()
}

func (c *Client) Deposit(ctx context.Context, username, rawAmount string) (decimal.Decimal, error) {
	return c.Post(ctx, username, domain.TransactionTypeDeposit, rawAmount, uuid.New())
}

func (c *Client) Withdraw(ctx context.Context, username, rawAmount string) (decimal.Decimal, error) {
	return c.Post(ctx, username, domain.TransactionTypeWithdraw, rawAmount, uuid.New())
}

// Post 送出存提款；以相同 refID 重送不會重複入帳
func (c *Client) Post(ctx context.Context, username string, kind domain.TransactionType, rawAmount string, refID uuid.UUID) (decimal.Decimal, error) {
	var method string
	switch kind {
	case domain.TransactionTypeDeposit:
		method = grpc_adapter.MethodDeposit
	case domain.TransactionTypeWithdraw:
		method = grpc_adapter.MethodWithdraw
	default:
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrUnsupportedTransaction, kind)
	}
	resp, err := c.invoke(c.withCredentials(ctx, username), method, map[string]interface{}{
		grpc_adapter.FieldAmount: rawAmount,
		grpc_adapter.FieldRefID:  refID.String(),
	})
	if err != nil {
		return decimal.Zero, err
	}
	return grpc_adapter.BalanceFromStruct(resp)
}

func (c *Client) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	resp, err := c.invoke(c.withCredentials(ctx, username), grpc_adapter.MethodBalance, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return grpc_adapter.BalanceFromStruct(resp)
}

// History 由新到舊回傳交易紀錄
func (c *Client) History(ctx context.Context, username string) ([]domain.TransactionRecord, error) {
	resp, err := c.invoke(c.withCredentials(ctx, username), grpc_adapter.MethodHistory, nil)
	if err != nil {
		return nil, err
	}
	return grpc_adapter.RecordsFromStruct(resp)
}
