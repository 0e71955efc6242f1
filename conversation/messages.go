package conversation

import (
	"fmt"
	"strings"
	"time"

	"salonbot-backend/models"
	"salonbot-backend/utils"
)

const msgWelcome = "👋 Добро пожаловать в бот для записи на прием!\n\n" +
	"📅 Для записи на прием введите /book\n" +
	"📋 Для просмотра ваших записей введите /my_bookings <телефон>\n" +
	"❌ Прервать запись можно командой /cancel"

const (
	msgNoSession      = "Чтобы записаться, введите /book или нажмите кнопку ниже."
	msgChooseService  = "Выберите услугу:"
	msgUnknownService = "❌ Такой услуги нет. Выберите услугу из списка:"
	msgChooseDate     = "Выберите дату приема (или введите в формате ДД.ММ.ГГГГ):"
	msgNoDates        = "😔 К сожалению, в ближайшие дни свободных дат нет. Попробуйте позже."
	msgBadDate        = "❌ Неверный формат! Введите дату в формате ДД.ММ.ГГГГ или выберите из списка:"
	msgDateNotOffered = "❌ На эту дату записаться нельзя. Выберите дату из списка:"
	msgDayFull        = "😔 На эту дату свободного времени не осталось. Выберите другую дату:"
	msgChooseTime     = "Выберите время приема (или введите в формате ЧЧ:ММ):"
	msgBadTime        = "❌ Неверный формат! Введите время в формате ЧЧ:ММ или выберите из списка:"
	msgTimeNotOffered = "❌ В это время мастер не принимает. Выберите время из списка:"
	msgSlotTaken      = "😔 Это время только что заняли. Выберите другое время:"
	msgSlotGone       = "⌛ Это время уже прошло. Выберите другое время:"
	msgDatePassed     = "⌛ Эта дата уже прошла. Выберите новую дату:"
	msgAskName        = "Введите ваше имя:"
	msgEmptyName      = "❌ Имя не может быть пустым. Введите ваше имя:"
	msgLongName       = "❌ Слишком длинное имя. Введите не более 64 символов:"
	msgAskPhone       = "Введите ваш номер телефона (например, +7 912 345-67-89):"
	msgBadPhone       = "❌ Неверный номер. Нужно 10 цифр после +7 или 8, например 89123456789:"
	msgConfirmHint    = "Подтвердите запись, измените данные или отмените:"
	msgCancelled      = "❌ Запись отменена"
	msgNoneToCancel   = "Активной записи нет. Чтобы записаться, введите /book"
	msgUnknownCommand = "Неизвестная команда. Доступно: /book, /my_bookings <телефон>, /cancel"
	msgMyBookingsHint = "📞 Для просмотра записей введите номер телефона после команды:\n/my_bookings 79123456789"
	msgNoBookings     = "❌ Записей не найдено. Проверьте номер телефона."
)

var weekdayShort = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func dateLabel(iso string) string {
	t, err := time.Parse(utils.DateLayout, iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%s %s", weekdayShort[t.Weekday()], t.Format("02.01"))
}

func serviceLabel(s models.Service) string {
	return fmt.Sprintf("%s · %d ₽", s.Name, s.Price)
}

func summary(s *Session) string {
	return fmt.Sprintf("📋 Проверьте запись:\n"+
		"• Услуга: %s (%d ₽, %d мин)\n"+
		"• Дата: %s\n"+
		"• Время: %s\n"+
		"• Имя: %s\n"+
		"• Телефон: %s",
		s.Service.Name, s.Service.Price, s.Service.Duration,
		utils.DisplayDate(s.Date), s.Time, s.Name, s.Phone)
}

func bookedText(r *models.Reservation) string {
	return fmt.Sprintf("✅ Запись успешно создана!\n\n"+
		"📋 Детали записи №%d:\n"+
		"• Услуга: %s\n"+
		"• Дата: %s\n"+
		"• Время: %s\n"+
		"• Имя: %s\n"+
		"• Телефон: %s\n\n"+
		"Мы ждем вас! 🎉",
		r.ID, r.ServiceName, utils.DisplayDate(r.Date), r.Time, r.ClientName, r.Phone)
}

func bookingsText(list []models.Reservation) string {
	var b strings.Builder
	b.WriteString("📋 Ваши записи:\n")
	for _, r := range list {
		status := ""
		if !r.IsActive() {
			status = " (отменена)"
		}
		fmt.Fprintf(&b, "\nID: %d%s\nУслуга: %s\nДата: %s\nВремя: %s\nИмя: %s\n",
			r.ID, status, r.ServiceName, utils.DisplayDate(r.Date), r.Time, r.ClientName)
	}
	return b.String()
}
