package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const FiatCurrency = "RUB"

// assetPrecision количество знаков после запятой для сумм в активе
var assetPrecision = map[string]int32{
	"USDT": 2,
	"USDC": 2,
	"TON":  4,
	"BTC":  8,
	"ETH":  6,
	"LTC":  6,
	"BNB":  6,
	"TRX":  2,
}

const defaultAssetPrecision int32 = 6

// NormalizeAsset приводит код актива к виду CryptoBot ("usdt " → "USDT")
func NormalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

// AssetPrecision точность суммы для актива
func AssetPrecision(asset string) int32 {
	if p, ok := assetPrecision[NormalizeAsset(asset)]; ok {
		return p
	}
	return defaultAssetPrecision
}

// FiatToAsset переводит сумму в фиате в сумму актива по курсу (фиат за 1 единицу актива).
// Округление вверх: недоплата по инвойсу недопустима.
func FiatToAsset(amount, rate decimal.Decimal, asset string) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return amount.DivRound(rate, 16).RoundCeil(AssetPrecision(asset))
}
