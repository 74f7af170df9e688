package texts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BuyButton           = "⭐️ Купить звёзды"
	ConfirmButton       = "✅ Подтвердить"
	CancelButton        = "❌ Отменить"
	PayButton           = "💳 Оплатить"
	CheckPaymentButton  = "✅ Проверить оплату"
	CheckPaymentPending = "Оплата пока не поступила"
)

const (
	Start = "👋 Привет! Здесь можно купить Telegram Stars за криптовалюту через CryptoBot.\n\n" +
		"Нажми «" + BuyButton + "», чтобы начать."

	Help = "ℹ️ <b>Как купить звёзды</b>\n\n" +
		"1. Нажми «" + BuyButton + "» или отправь /buy\n" +
		"2. Введи количество звёзд\n" +
		"3. Подтверди заказ и выбери валюту\n" +
		"4. Оплати счёт в CryptoBot\n" +
		"5. Укажи username получателя\n\n" +
		"Если доставка не удастся, деньги вернутся автоматически.\n\n" +
		"/buy - купить звёзды\n/cancel - отменить покупку\n/my_info - моя статистика"

	OrderCancelled  = "❌ Покупка отменена."
	NothingToCancel = "Нет активной покупки."

	ChooseCurrency = "💱 Выбери валюту оплаты:"

	ErrorGateway = "⚠️ Платёжный сервис временно недоступен. Попробуй позже."
	ErrorGeneric = "⚠️ Что-то пошло не так. Попробуй позже."

	InvalidCurrency = "Эта валюта недоступна, выбери из списка."

	PaymentExpired = "⌛️ Время на оплату истекло, покупка отменена.\n" +
		"Если ты всё же оплатил счёт, мы пришлём сообщение, как только платёж придёт."

	AskRecipient = "✅ Оплата получена!\n\n" +
		"Отправь username получателя звёзд (например, @durov)."

	InvalidRecipient      = "❗️ Получатель не найден или username указан неверно. Отправь корректный username."
	RecipientUnverifiable = "⚠️ Не удалось проверить получателя, попробуй ещё раз через минуту."

	FinishCurrentPurchase = "Сначала заверши текущую покупку: отправь username получателя."
	UseButtons            = "Воспользуйся кнопками под сообщением или отправь /cancel."
	NoActivePurchase      = "Нет активной покупки. Нажми «" + BuyButton + "» или отправь /buy."
	DeliveryInProgress    = "⏳ Отправляем звёзды..."

	DeliveryInterrupted = "⚠️ Отправка звёзд прервалась. Поддержка проверит заказ и свяжется с тобой."
)

// FormatUnknownCommand форматирует сообщение о неизвестной команде
func FormatUnknownCommand(command string) string {
	return fmt.Sprintf("Неизвестная команда /%s. Список команд: /help", command)
}

// FormatAskQuantity просьба ввести количество
func FormatAskQuantity(min, max int64) string {
	return fmt.Sprintf("⭐️ Сколько звёзд купить?\n\nВведи число от %d до %d.", min, max)
}

// FormatInvalidQuantity количество вне диапазона или не число
func FormatInvalidQuantity(min, max int64) string {
	return fmt.Sprintf("❗️ Нужно целое число от %d до %d. Попробуй ещё раз.", min, max)
}

// FormatConfirmOrder подтверждение заказа, стоимость всегда с двумя знаками
func FormatConfirmOrder(stars int64, cost decimal.Decimal, fiat string) string {
	return fmt.Sprintf("🧾 <b>Заказ</b>\n\nЗвёзд: %d\nСтоимость: %s %s\n\nПодтвердить?",
		stars, cost.StringFixed(2), fiat)
}

// FormatInvoice счёт выставлен
func FormatInvoice(stars int64, assetAmount decimal.Decimal, asset string, windowMinutes int) string {
	return fmt.Sprintf("💳 Счёт на %d ⭐️ выставлен.\n\nК оплате: <b>%s %s</b>\nОплати в течение %d мин, затем нажми «%s».",
		stars, assetAmount.String(), asset, windowMinutes, CheckPaymentButton)
}

// FormatDelivered звёзды доставлены
func FormatDelivered(stars int64, recipient string) string {
	return fmt.Sprintf("🎉 Готово! %d ⭐️ отправлены пользователю @%s.", stars, recipient)
}

// FormatRefunded доставка не прошла, деньги вернули
func FormatRefunded(stars int64) string {
	return fmt.Sprintf("😔 Не удалось отправить %d ⭐️. Оплата возвращена на твой счёт в CryptoBot.", stars)
}

// FormatRefundFailed доставка и возврат не прошли, подключается администратор
func FormatRefundFailed(invoiceID string) string {
	return fmt.Sprintf("😔 Не удалось отправить звёзды, и автоматический возврат не прошёл.\n"+
		"Администратор уже в курсе и свяжется с тобой. Номер счёта: %s", invoiceID)
}

// FormatMyInfo статистика пользователя
func FormatMyInfo(username *string, totalStars int64, totalSpent decimal.Decimal, fiat string) string {
	var b strings.Builder
	b.WriteString("👤 <b>Мой профиль</b>\n\n")
	if username != nil && *username != "" {
		b.WriteString(fmt.Sprintf("Username: @%s\n", *username))
	}
	b.WriteString(fmt.Sprintf("Куплено звёзд: %d\n", totalStars))
	b.WriteString(fmt.Sprintf("Потрачено: %s %s\n", totalSpent.StringFixed(2), fiat))
	return b.String()
}

// FormatAlertRefundFailed алерт админам: деньги получены, звёзды и возврат не прошли
func FormatAlertRefundFailed(invoiceID string, userID int64, stars int64, deliveryErr, refundErr error) string {
	return fmt.Sprintf("🚨 <b>Возврат не прошёл</b>\ninvoice: %s\nuser: %d\nstars: %d\ndelivery: %v\nrefund: %v",
		invoiceID, userID, stars, deliveryErr, refundErr)
}

// FormatAlertLedger алерт админам о нарушении инварианта леджера
func FormatAlertLedger(op, invoiceID string, err error) string {
	return fmt.Sprintf("🚨 <b>Ledger</b> %s\ninvoice: %s\nerror: %v", op, invoiceID, err)
}

// FormatAlertPaidResumed алерт админам: оплаченная покупка потеряла сессию, пользователя спросили снова
func FormatAlertPaidResumed(invoiceID string, userID int64, paidFor time.Duration) string {
	return fmt.Sprintf("⚠️ <b>Оплата без сессии</b>\ninvoice: %s\nuser: %d\nоплачено: %s назад\nпользователю повторно отправлен запрос получателя",
		invoiceID, userID, paidFor.Round(time.Minute))
}

// FormatAlertDeliveryInterrupted алерт админам: доставка начата и не завершена, нужна ручная сверка с Fragment
func FormatAlertDeliveryInterrupted(invoiceID string, userID int64, stars int64, recipient string) string {
	return fmt.Sprintf("🚨 <b>Доставка прервана</b>\ninvoice: %s\nuser: %d\nstars: %d\nrecipient: %s\nсверить с Fragment и вернуть оплату вручную",
		invoiceID, userID, stars, recipient)
}
