package locale

import (
	"fmt"

	"tablebook/pkg/model"
)

var zoneLabels = map[model.Zone]string{
	model.ZoneHall1: "1 зал",
	model.ZoneHall2: "2 зал",
	model.ZoneHall3: "3 зал",
}

func ZoneLabel(z model.Zone) string {
	if label, ok := zoneLabels[z]; ok {
		return label
	}
	return string(z)
}

// SeatsLabel is the caption under a table on the map.
func SeatsLabel(seats int) string {
	return fmt.Sprintf("%d мест", seats)
}

// GuestsLabel is the caption of a table card in list mode.
func GuestsLabel(seats int) string {
	return fmt.Sprintf("%d перс.", seats)
}

const (
	LegendSelected = "Выбрано"
	LegendFree     = "Свободно"
	LegendOccupied = "Занято"
	EntranceLabel  = "Вход"
)
