package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFiatToAsset(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		asset  string
		want   string
	}{
		{name: "exact", amount: "160", rate: "80", asset: "USDT", want: "2"},
		{name: "rounds up", amount: "100", rate: "3", asset: "USDT", want: "33.34"},
		{name: "ton precision", amount: "400", rate: "300", asset: "TON", want: "1.3334"},
		{name: "btc precision", amount: "160", rate: "9000000", asset: "btc", want: "0.00001778"},
		{name: "zero rate", amount: "160", rate: "0", asset: "USDT", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FiatToAsset(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate), tt.asset)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("FiatToAsset() = %s, want %s", got, tt.want)
			}
		})
	}
}
