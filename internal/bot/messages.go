package bot

import (
	"fmt"
	"strings"

	"github.com/KlimSani4/hydrocalc/internal/calculator"
)

// Button is an inline keyboard button; Data is "group:value".
type Button struct {
	Text string
	Data string
}

// OutgoingMessage is HTML-formatted text, optionally with an inline keyboard.
type OutgoingMessage struct {
	ChatID   int64
	Text     string
	Keyboard [][]Button
}

const helpText = "💧 <b>HydroCalc</b>\n\n" +
	"Бот рассчитывает суточную потребность в питьевой воде для школы или лагеря.\n\n" +
	"/calculate — новый расчёт\n" +
	"/history — последние расчёты\n" +
	"/cancel — прервать текущий расчёт\n" +
	"/help — эта справка"

const (
	idleHint       = "Используйте /calculate, чтобы начать расчёт."
	cancelledText  = "Расчёт отменён."
	nothingToStop  = "Сейчас нет активного расчёта."
	calculatingMsg = "⏳ Выполняю расчёт..."
	notANumberMsg  = "❌ Пожалуйста, введите целое число от 0 и выше."
	useButtonsMsg  = "❌ Пожалуйста, выберите вариант кнопкой ниже."
	tooLargeMsg    = "❌ Слишком большое число, максимум 1000000."
)

var categoryLabels = map[calculator.Category]string{
	calculator.Junior: "Младшие школьники",
	calculator.Middle: "Средние школьники",
	calculator.Senior: "Старшие школьники",
	calculator.Staff:  "Персонал",
}

var seasonLabels = map[calculator.Season]string{
	calculator.Cold: "❄️ Холодный",
	calculator.Warm: "☀️ Тёплый",
}

var activityLabels = map[calculator.Activity]string{
	calculator.Normal: "📚 Обычный день",
	calculator.Sport:  "⚽ Физкультура",
	calculator.Trip:   "🏕 Поход",
}

func seasonKeyboard() [][]Button {
	row := make([]Button, 0, len(calculator.Seasons))
	for _, s := range calculator.Seasons {
		row = append(row, Button{Text: seasonLabels[s], Data: ChoiceSeason + ":" + string(s)})
	}
	return [][]Button{row}
}

func activityKeyboard() [][]Button {
	rows := make([][]Button, 0, len(calculator.Activities))
	for _, a := range calculator.Activities {
		rows = append(rows, []Button{{Text: activityLabels[a], Data: ChoiceActivity + ":" + string(a)}})
	}
	return rows
}

// question returns the prompt for a collecting state.
func question(s State) (string, [][]Button) {
	switch s {
	case StateCollectingJunior:
		return "📝 <b>Расчёт потребления воды</b>\n\n" +
			"Введите количество <b>младших школьников (7-10 лет)</b>:\n<i>число от 0 и выше</i>", nil
	case StateCollectingMiddle:
		return "Введите количество <b>средних школьников (11-14 лет)</b>:", nil
	case StateCollectingSenior:
		return "Введите количество <b>старших школьников (15-17 лет)</b>:", nil
	case StateCollectingStaff:
		return "Введите количество <b>персонала (18+ лет)</b>:", nil
	case StateCollectingSeason:
		return "Выберите <b>сезон</b>:", seasonKeyboard()
	case StateCollectingActivity:
		return "Выберите <b>тип активности</b>:", activityKeyboard()
	}
	return idleHint, nil
}

func rejectText(r RejectReason) string {
	switch r {
	case ReasonUseButtons:
		return useButtonsMsg
	case ReasonTooLarge:
		return tooLargeMsg
	}
	return notANumberMsg
}

func label[K comparable](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return fmt.Sprint(k)
}

// formatResult renders the summary sent after a finished dialogue.
func formatResult(req calculator.Request, res calculator.Result, local bool) string {
	var b strings.Builder
	b.WriteString("✅ <b>Результат расчёта</b>")
	if local {
		b.WriteString(" <i>(локальный)</i>")
	}
	b.WriteString("\n\n<b>Исходные данные:</b>\n")
	for _, c := range calculator.Categories {
		fmt.Fprintf(&b, "• %s: %d чел.\n", categoryLabels[c], req.Count(c))
	}
	fmt.Fprintf(&b, "• Сезон: %s\n", label(seasonLabels, req.Season))
	fmt.Fprintf(&b, "• Активность: %s\n\n", label(activityLabels, req.Activity))

	fmt.Fprintf(&b, "💧 <b>Итого:</b> %.2f л в день\n", res.TotalWater)
	fmt.Fprintf(&b, "👥 <b>Всего людей:</b> %d\n", res.TotalPeople)

	b.WriteString("\n<b>Детализация:</b>\n")
	for _, c := range calculator.Categories {
		line := res.Breakdown.Get(c)
		fmt.Fprintf(&b, "• %s: %.2f л (%d чел. × %g л)\n", categoryLabels[c], line.Subtotal, line.Count, line.Norm)
	}
	fmt.Fprintf(&b, "Коэффициенты: сезон ×%g, активность ×%g", res.Coefficients.Season, res.Coefficients.Activity)

	if local {
		b.WriteString("\n\n<i>⚠️ Сервер расчёта недоступен, результат посчитан локально</i>")
	}
	return b.String()
}

// formatHistory renders entries that are already newest first.
func formatHistory(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return "📋 <b>История расчётов</b>\n\n" +
			"У вас пока нет сохранённых расчётов.\n" +
			"Используйте /calculate для выполнения расчёта."
	}
	var b strings.Builder
	b.WriteString("📋 <b>История расчётов</b>\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "<b>%d.</b> %s\n", i+1, e.At.Format("02.01 15:04"))
		fmt.Fprintf(&b, "   💧 %.2f л • %d чел.\n", e.TotalWater, e.TotalPeople)
		fmt.Fprintf(&b, "   %s, %s\n\n", label(seasonLabels, e.Request.Season), label(activityLabels, e.Request.Activity))
	}
	b.WriteString("<i>История хранится до перезапуска бота</i>")
	return b.String()
}
