package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/fitforxe/gym-backend/internal/model"
)

var settledAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testSettlement() model.Settlement {
	tx := model.PaymentTransaction{
		ID:             "tx1",
		OwnerID:        "o1",
		MemberID:       "m1",
		Gateway:        model.GatewayStripe,
		GatewayRef:     "cs_1",
		Amount:         decimal.RequireFromString("49.99"),
		Method:         model.GatewayStripe.Method(),
		MembershipType: model.MembershipBasic,
	}
	return model.NewSettlement(tx, "pi_1", "pay1", settledAt)
}

const completeUpdate = "UPDATE payment_transactions SET status=?, gateway_payment_id=?, completed_at=?, updated_at=? WHERE id=? AND status<>?"

func TestComplete_Settles(t *testing.T) {
	db, mock := newMock(t)
	s := testSettlement()

	mock.ExpectBegin()
	mock.ExpectExec(q(completeUpdate)).
		WithArgs(model.TxCompleted, "pi_1", settledAt, settledAt, "tx1", model.TxCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO payments (")).
		WithArgs("pay1", "o1", "m1", s.Payment.Amount, settledAt, s.Payment.PaymentMethod, model.PaymentPaid,
			model.MembershipBasic, settledAt, s.CoverageEnd, nil, "tx1", settledAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE members SET membership_end_date=?, status=?, updated_at=?, auto_billing_enabled=1 WHERE id=? AND owner_id=?")).
		WithArgs(s.CoverageEnd, model.MemberActive, settledAt, "m1", "o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	won, err := NewTransactionRepo(db).Complete(context.Background(), s)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !won {
		t.Fatal("first settlement should win")
	}
}

func TestComplete_LostRaceRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(completeUpdate)).
		WithArgs(model.TxCompleted, "pi_1", settledAt, settledAt, "tx1", model.TxCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	won, err := NewTransactionRepo(db).Complete(context.Background(), testSettlement())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if won {
		t.Fatal("an already completed transaction must not settle again")
	}
}

func TestComplete_LedgerFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(completeUpdate)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO payments (")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	won, err := NewTransactionRepo(db).Complete(context.Background(), testSettlement())
	if err == nil || won {
		t.Fatalf("Complete = %v, %v; want error", won, err)
	}
}

func TestMarkStatus_OnlyOpenTransactions(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"open", 1, true},
		{"already terminal", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(q("UPDATE payment_transactions SET status=?, updated_at=? WHERE id=? AND status IN (?, ?)")).
				WithArgs(model.TxFailed, settledAt, "tx1", model.TxInitiated, model.TxPending).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := NewTransactionRepo(db).MarkStatus(context.Background(), "tx1", model.TxFailed, settledAt)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("MarkStatus = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateTransaction(t *testing.T) {
	tx := &model.PaymentTransaction{
		ID: "tx1", OwnerID: "o1", MemberID: "m1", Gateway: model.GatewayRazorpay, GatewayRef: "order_1",
		Amount: decimal.RequireFromString("10"), Currency: "INR", Method: model.GatewayRazorpay.Method(),
		Status: model.TxInitiated, MembershipType: model.MembershipBasic, CreatedAt: settledAt, UpdatedAt: settledAt,
	}
	insert := q("INSERT INTO payment_transactions (") + ".*" + q("FROM members WHERE id=? AND owner_id=?")

	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
		want   error
	}{
		{"stored", func(m sqlmock.Sqlmock) {
			m.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 1))
		}, nil},
		{"member gone", func(m sqlmock.Sqlmock) {
			m.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))
		}, ErrNotFound},
		{"duplicate ref", func(m sqlmock.Sqlmock) {
			m.ExpectExec(insert).WillReturnError(&mysql.MySQLError{Number: 1062})
		}, ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.expect(mock)
			err := NewTransactionRepo(db).Create(context.Background(), tx)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetByGatewayRefForOwner_OtherGym(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM payment_transactions WHERE gateway=? AND gateway_ref=? AND owner_id=?")).
		WithArgs(model.GatewayStripe, "cs_1", "o2").
		WillReturnError(sql.ErrNoRows)

	_, err := NewTransactionRepo(db).GetByGatewayRefForOwner(context.Background(), "o2", model.GatewayStripe, "cs_1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
