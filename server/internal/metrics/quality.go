package metrics

import (
	"fmt"
	"math"
)

// Participant screening thresholds.
const (
	IATMeanRTMin           = 300.0  // ms
	IATMeanRTMax           = 3000.0 // ms
	ReadingTimePerWordMin  = 200.0  // ms per word
	CalibrationErrorMaxDeg = 4.0
	ScreenPixelsPerInch    = 96.0
	EyeToScreenDistanceCM  = 70.0
	pixelsPerCM            = ScreenPixelsPerInch / 2.54
)

// ValidationPoint is one gaze estimate recorded while the participant looked
// at a known calibration dot at (DX, DY).
type ValidationPoint struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ScreeningInput carries what the screening checks need from one session.
// A nil slice means the session had no trial of that kind.
type ScreeningInput struct {
	IATRTs              []float64
	ReadingTimesPerWord []float64
	ValidationPoints    []ValidationPoint
}

// ScreeningResult lists why a participant should be excluded. No reasons
// means the participant passed.
type ScreeningResult struct {
	Accepted               bool         `json:"accepted"`
	Reasons                []string     `json:"reasons"`
	IATMeanRT              MetricResult `json:"iat_mean_rt"`
	MeanReadingTimePerWord MetricResult `json:"mean_reading_time_per_word"`
	CalibrationError       MetricResult `json:"calibration_error_deg"`
}

// CalibrationErrorDegrees converts the mean distance between gaze estimates
// and calibration dots into degrees of visual angle.
func CalibrationErrorDegrees(points []ValidationPoint) MetricResult {
	errs := make([]float64, 0, len(points))
	for _, p := range points {
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.DX) || !isFinite(p.DY) {
			continue
		}
		distCM := math.Hypot(p.X-p.DX, p.Y-p.DY) / pixelsPerCM
		errs = append(errs, math.Atan(distCM/EyeToScreenDistanceCM)*180/math.Pi)
	}
	if len(errs) == 0 {
		return notCalculated(0)
	}
	return MetricResult{Value: mean(errs), Calculated: true, SampleSize: len(errs)}
}

// Screen runs the exclusion checks used before analysis.
func Screen(in ScreeningInput) ScreeningResult {
	res := ScreeningResult{Reasons: make([]string, 0)}

	res.IATMeanRT = finiteMean(in.IATRTs)
	if !res.IATMeanRT.Calculated {
		res.Reasons = append(res.Reasons, "no IAT trials found")
	} else if rt := res.IATMeanRT.Value; rt < IATMeanRTMin || rt > IATMeanRTMax {
		res.Reasons = append(res.Reasons, fmt.Sprintf("IAT mean RT %.0fms outside [%.0f,%.0f]", rt, IATMeanRTMin, IATMeanRTMax))
	}

	res.MeanReadingTimePerWord = finiteMean(in.ReadingTimesPerWord)
	if !res.MeanReadingTimePerWord.Calculated {
		res.Reasons = append(res.Reasons, "no self_paced_reading trials found")
	} else if rtpw := res.MeanReadingTimePerWord.Value; rtpw < ReadingTimePerWordMin {
		res.Reasons = append(res.Reasons, fmt.Sprintf("mean reading_time_per_word %.1fms < %.0fms", rtpw, ReadingTimePerWordMin))
	}

	res.CalibrationError = CalibrationErrorDegrees(in.ValidationPoints)
	if !res.CalibrationError.Calculated {
		res.Reasons = append(res.Reasons, "no valid eye_tracking_validation gaze points found")
	} else if deg := res.CalibrationError.Value; deg > CalibrationErrorMaxDeg {
		res.Reasons = append(res.Reasons, fmt.Sprintf("mean calibration error %.2f° > %.1f°", deg, CalibrationErrorMaxDeg))
	}

	res.Accepted = len(res.Reasons) == 0
	return res
}

func finiteMean(values []float64) MetricResult {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return notCalculated(0)
	}
	return MetricResult{Value: mean(kept), Calculated: true, SampleSize: len(kept)}
}
