package models

import (
	"sort"
	"time"
)

// CaseEvolution day-by-day clinical follow-up entry for a Case.
// Immutable once created except through an explicit update call.
type CaseEvolution struct {
	ID         int       `json:"id"`
	CaseID     int       `json:"idCaso"`
	IllnessDay int       `json:"diaEnfermedad"`
	Date       time.Time `json:"fechaEvolucion"`
	AuthorID   int       `json:"idPersonalMedico"`
	AuthorName string    `json:"nombrePersonalMedico,omitempty"`

	Vitals
	Labs
	AlarmSigns

	Observations string `json:"observaciones,omitempty"`

	// treatment
	IVFluids     bool `json:"liquidosIntravenosos"`
	Hospitalized bool `json:"hospitalizado"`
	ICU          bool `json:"uci"`
}

// Vitals vital signs, nil = not measured
type Vitals struct {
	Temperature     *float64 `json:"temperatura,omitempty"`
	HeartRate       *int     `json:"frecuenciaCardiaca,omitempty"`
	RespiratoryRate *int     `json:"frecuenciaRespiratoria,omitempty"`
	SystolicBP      *int     `json:"presionSistolica,omitempty"`
	DiastolicBP     *int     `json:"presionDiastolica,omitempty"`
	OxygenSat       *float64 `json:"saturacionOxigeno,omitempty"`
}

// Labs laboratory values, nil = not measured
type Labs struct {
	Platelets  *float64 `json:"plaquetas,omitempty"`
	Hematocrit *float64 `json:"hematocrito,omitempty"`
	Hemoglobin *float64 `json:"hemoglobina,omitempty"`
	Leukocytes *float64 `json:"leucocitos,omitempty"`
}

// AlarmSigns WHO dengue warning signs
type AlarmSigns struct {
	AbdominalPain      bool `json:"dolorAbdominal"`
	PersistentVomiting bool `json:"vomitoPersistente"`
	FluidAccumulation  bool `json:"acumulacionLiquidos"`
	MucosalBleeding    bool `json:"sangradoMucosas"`
	Lethargy           bool `json:"letargo"`
	Hepatomegaly       bool `json:"hepatomegalia"`
	HematocritRise     bool `json:"aumentoHematocrito"`
}

// HasAlarmSigns reports whether any warning sign is present.
func (a AlarmSigns) HasAlarmSigns() bool {
	return a.AbdominalPain || a.PersistentVomiting || a.FluidAccumulation ||
		a.MucosalBleeding || a.Lethargy || a.Hepatomegaly || a.HematocritRise
}

// EvolutionRequest body of POST /CaseEvolution and PUT /CaseEvolution/{id}
type EvolutionRequest struct {
	CaseID     int       `json:"idCaso"`
	IllnessDay int       `json:"diaEnfermedad"`
	Date       time.Time `json:"fechaEvolucion"`

	Vitals
	Labs
	AlarmSigns

	Observations string `json:"observaciones,omitempty"`
	IVFluids     bool   `json:"liquidosIntravenosos"`
	Hospitalized bool   `json:"hospitalizado"`
	ICU          bool   `json:"uci"`
}

// SortEvolutions orders entries by illness day, then date, for trend display.
func SortEvolutions(items []CaseEvolution) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IllnessDay != items[j].IllnessDay {
			return items[i].IllnessDay < items[j].IllnessDay
		}
		return items[i].Date.Before(items[j].Date)
	})
}
