package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg-filedrop/internal/models"
)

// callback data values and prefixes
const (
	cbHelp          = "help_button"
	cbProtectYes    = "protect_yes"
	cbProtectNo     = "protect_no"
	cbDeletePrefix  = "delete_"
	cbSetMsgPrefix  = "setmsg_"
	cbSetImgPrefix  = "setimg_"
	targetStartName = "start"
	targetHelpName  = "help"
)

var timerButtonLabels = map[int]string{
	models.Delete5Min:  "5 min",
	models.Delete1Hour: "1 hour",
	models.Delete1Day:  "1 day",
	models.Delete1Week: "1 week",
	models.DeleteNever: "Never",
}

func helpKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(tu.InlineKeyboardButton(models.T("help_button")).WithCallbackData(cbHelp)),
	)
}

func protectKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(models.T("protect_yes")).WithCallbackData(cbProtectYes),
			tu.InlineKeyboardButton(models.T("protect_no")).WithCallbackData(cbProtectNo),
		),
	)
}

// timerKeyboard lays the delete choices out three per row in menu order
func timerKeyboard() *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	var row []telego.InlineKeyboardButton
	for _, minutes := range models.DeleteTimerChoices {
		row = append(row, tu.InlineKeyboardButton(timerButtonLabels[minutes]).
			WithCallbackData(fmt.Sprintf("%s%d", cbDeletePrefix, minutes)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tu.InlineKeyboard(rows...)
}

func targetKeyboard(prefix, startLabel, helpLabel string) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(startLabel).WithCallbackData(prefix+targetStartName),
			tu.InlineKeyboardButton(helpLabel).WithCallbackData(prefix+targetHelpName),
		),
	)
}

// parseDeleteMinutes reads the minutes out of a delete_<n> callback
func parseDeleteMinutes(data string) (int, error) {
	raw, ok := strings.CutPrefix(data, cbDeletePrefix)
	if !ok {
		return 0, fmt.Errorf("not a delete callback: %q", data)
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid delete minutes %q: %w", raw, err)
	}
	return minutes, nil
}

// parseMessageTarget maps the start/help suffix of a callback to a message type
func parseMessageTarget(data, prefix string) (string, bool) {
	switch strings.TrimPrefix(data, prefix) {
	case targetStartName:
		return models.MessageTypeStart, true
	case targetHelpName:
		return models.MessageTypeHelp, true
	}
	return "", false
}

func messageLabel(messageType string) string {
	if messageType == models.MessageTypeHelp {
		return models.T("help_message_label")
	}
	return models.T("start_message_label")
}
