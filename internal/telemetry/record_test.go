package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecord(crcEnabled bool) Record {
	return Record{
		Seq:          42,
		TimestampMs:  123456,
		PresentFlags: presentBMP | presentIMU1 | presentSYS | presentCTRL | presentIMU2,
		Baro: BaroSection{
			TemperatureC: 15.5, PressurePa: 101325, AltitudeMMSL: 12.3, Valid: true,
		},
		ImuA: ImuASection{
			QuatWXYZ: [4]float32{1, 0, 0, 0}, AccelBodyG: [3]float32{0, 0, 1},
			PressurePa: 101000, AltitudeMMSL: 30, Valid: true,
		},
		ImuB: ImuBSection{
			AccelBodyG: [3]float32{0, 0, 1}, GyroDps: [3]float32{1, -1, 0.5}, TempC: 22, Valid: true,
		},
		Sys: SysSection{
			VbatMv: 7400, BusErrorCount: 2, FcState: 5, FcFlags: 0x1F, AglReady: true,
			TSinceLaunchS: 12.5, TToApogeeS: 3.2,
		},
		Ctrl: CtrlSection{AirbrakeCmdDeg: 30, AirbrakeActualDeg: 0},
		Fused: FusedSection{
			AglFused: 800, VzFused: 80, AzEarth: 0.1, TiltDeg: 2.5,
			TiltAz360: 180, MachConservative: 0.3, ApogeeAglM: 3100,
		},
		CRCEnabled: crcEnabled,
	}
}

func TestRecordRoundTrip(t *testing.T) {
	rec := sampleRecord(true)
	buf := rec.Encode()

	decoded, crcOK, err := Decode(buf, true)
	require.NoError(t, err)
	require.True(t, crcOK)

	require.Equal(t, rec.Seq, decoded.Seq)
	require.Equal(t, rec.TimestampMs, decoded.TimestampMs)
	require.Equal(t, rec.Baro, decoded.Baro)
	require.Equal(t, rec.ImuA, decoded.ImuA)
	require.Equal(t, rec.ImuB, decoded.ImuB)
	require.Equal(t, rec.Sys, decoded.Sys)
	require.Equal(t, rec.Ctrl, decoded.Ctrl)
	require.Equal(t, rec.Fused, decoded.Fused)
}

func TestRecordRoundTrip_NaNBitExact(t *testing.T) {
	rec := sampleRecord(true)
	rec.Fused.MachConservative = float32(nan())

	buf := rec.Encode()
	decoded, crcOK, err := Decode(buf, true)
	require.NoError(t, err)
	require.True(t, crcOK)
	require.True(t, isNaN(decoded.Fused.MachConservative))
}

func TestCRCDetectsCorruption(t *testing.T) {
	rec := sampleRecord(true)
	buf := rec.Encode()

	// Flip a single byte inside the control section (2 float32s,
	// immediately before the 7-float32 fused section and the CRC).
	ctrlStart := len(buf) - 4 /*crc*/ - 4*7 /*fused floats*/ - 4*2 /*ctrl floats*/
	buf[ctrlStart] ^= 0xFF

	_, crcOK, err := Decode(buf, true)
	require.NoError(t, err)
	require.False(t, crcOK)
}

func TestCRCDisabledIsZero(t *testing.T) {
	rec := sampleRecord(false)
	buf := rec.Encode()
	// last 4 bytes must be the literal zero CRC field.
	require.Equal(t, []byte{0, 0, 0, 0}, buf[len(buf)-4:])
}

func nan() float64 { var z float64; return z / z }
func isNaN(f float32) bool { return f != f }
