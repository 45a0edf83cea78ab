package models

import "time"

// Типы торговых счетов.
const (
	AccountTypeMaster = "master"
	AccountTypeSlave  = "slave"
)

// TradingAccount представляет торговый счёт пользователя,
// подключаемый к копировщику сделок.
type TradingAccount struct {
	ID                int
	UserUID           string
	AccountNumber     string
	Platform          string // mt4 или mt5
	Server            string
	Password          string
	AccountType       string // master или slave
	Status            string
	LotCoefficient    float64
	ForceLot          float64
	ReverseTrade      bool
	ConnectedToMaster string
	CreatedAt         time.Time
	DeletedAt         *time.Time
}

// DummyTradingAccount используется для приёма данных из JSON-запроса,
// прежде чем конвертировать их в TradingAccount.
type DummyTradingAccount struct {
	AccountNumber     string  `json:"account_number" validate:"required,numeric"`
	Platform          string  `json:"platform" validate:"required,oneof=mt4 mt5"`
	Server            string  `json:"server" validate:"required"`
	Password          string  `json:"password" validate:"required"`
	AccountType       string  `json:"account_type" validate:"required,oneof=master slave"`
	LotCoefficient    float64 `json:"lot_coefficient,omitempty"`
	ForceLot          float64 `json:"force_lot,omitempty"`
	ReverseTrade      bool    `json:"reverse_trade,omitempty"`
	ConnectedToMaster string  `json:"connected_to_master,omitempty"`
}

// DummyTradingAccountUpdate описывает изменяемые параметры копирования.
type DummyTradingAccountUpdate struct {
	LotCoefficient    *float64 `json:"lot_coefficient,omitempty"`
	ForceLot          *float64 `json:"force_lot,omitempty"`
	ReverseTrade      *bool    `json:"reverse_trade,omitempty"`
	ConnectedToMaster *string  `json:"connected_to_master,omitempty"`
}
