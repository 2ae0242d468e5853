package grpc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

// 請求與回應欄位名稱
const (
	FieldUsername       = "username"
	FieldCredential     = "credential"
	FieldInitialBalance = "initial_balance"
	FieldAmount         = "amount"
	FieldRefID          = "ref_id"
	FieldBalance        = "balance"
	FieldAuthenticated  = "authenticated"
	FieldRecords        = "records"
	FieldID             = "id"
	FieldKind           = "kind"
	FieldTimestamp      = "timestamp"
)

// StringField 取出字串欄位，不存在時為空字串
func StringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func balanceStruct(balance decimal.Decimal) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		FieldBalance: balance.String(),
	})
}

// BalanceFromStruct 解析回應中的餘額
func BalanceFromStruct(s *structpb.Struct) (decimal.Decimal, error) {
	return decimal.NewFromString(StringField(s, FieldBalance))
}

func recordsStruct(records []domain.TransactionRecord) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(records))
	for _, rec := range records {
		list = append(list, map[string]interface{}{
			FieldID:        rec.ID.String(),
			FieldKind:      rec.Kind.String(),
			FieldAmount:    rec.Amount.String(),
			FieldTimestamp: rec.Timestamp.Format(time.RFC3339Nano),
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		FieldRecords: list,
	})
}

// RecordsFromStruct 還原交易紀錄 (保持由新到舊)
func RecordsFromStruct(s *structpb.Struct) ([]domain.TransactionRecord, error) {
	values := s.GetFields()[FieldRecords].GetListValue().GetValues()
	records := make([]domain.TransactionRecord, 0, len(values))
	for i, v := range values {
		fields := v.GetStructValue()
		id, err := uuid.Parse(StringField(fields, FieldID))
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid id: %w", i, err)
		}
		kind, ok := domain.ParseTransactionType(StringField(fields, FieldKind))
		if !ok {
			return nil, fmt.Errorf("record %d: unknown kind %q", i, StringField(fields, FieldKind))
		}
		amount, err := decimal.NewFromString(StringField(fields, FieldAmount))
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid amount: %w", i, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, StringField(fields, FieldTimestamp))
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid timestamp: %w", i, err)
		}
		records = append(records, domain.TransactionRecord{ID: id, Kind: kind, Amount: amount, Timestamp: ts})
	}
	return records, nil
}

// statusCodes 領域錯誤對應的 gRPC 狀態碼
var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{domain.ErrDuplicateUser, codes.AlreadyExists},
	{domain.ErrInvalidUsername, codes.InvalidArgument},
	{domain.ErrInvalidAmount, codes.InvalidArgument},
	{domain.ErrUnsupportedTransaction, codes.InvalidArgument},
	{domain.ErrUserNotFound, codes.NotFound},
	{domain.ErrInsufficientFunds, codes.FailedPrecondition},
	{domain.ErrNotAuthenticated, codes.Unauthenticated},
	{domain.ErrStoreClosed, codes.Unavailable},
}

// toStatus 將領域錯誤轉為 gRPC status
func toStatus(err error) error {
	for _, m := range statusCodes {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// ErrorFromStatus 將 gRPC status 還原為領域錯誤，讓 client 端可用 errors.Is 判斷
func ErrorFromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	msg := st.Message()
	for _, m := range statusCodes {
		if m.code != st.Code() || !strings.HasPrefix(msg, m.err.Error()) {
			continue
		}
		if msg == m.err.Error() {
			return m.err
		}
		return fmt.Errorf("%w%s", m.err, strings.TrimPrefix(msg, m.err.Error()))
	}
	return err
}
