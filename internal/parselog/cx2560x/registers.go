package cx2560x

import "fmt"

func bit(v uint8, n uint) uint8 {
	return (v >> n) & 1
}

func bits(v uint8, hi, lo uint) uint8 {
	return (v >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func pick(v uint8, set, clear string) string {
	if v != 0 {
		return set
	}
	return clear
}

// decode00 covers input source control: HIZ mode, D+/D- detection and the
// input current limit.
func decode00(v uint8) []Field {
	iindpm := bits(v, 4, 0)
	return []Field{
		{Name: "EN_HIZ", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "Enable", "Disable (default)")},
		{Name: "DPDM_DIS", Bits: "6", Value: bit(v, 6),
			Description: pick(bit(v, 6), "Disable", "Enable (default)")},
		{Name: "STAT_DIS", Bits: "5", Value: bit(v, 5),
			Description: pick(bit(v, 5), "Disable", "Enable (default)")},
		{Name: "IINDPM", Bits: "[4:0]", Value: iindpm,
			Description: fmt.Sprintf("Input Current Limit: %dmA", 100+int(iindpm)*100)},
	}
}

// decode01 covers charge and OTG enables plus the minimum system voltage.
func decode01(v uint8) []Field {
	sysMin := map[uint8]string{
		0: "2.6V", 1: "2.8V", 2: "3.0V", 3: "3.2V",
		4: "3.4V", 5: "3.5V", 6: "3.6V", 7: "3.7V",
	}
	minVal := bits(v, 3, 0)
	desc, ok := sysMin[minVal]
	if !ok {
		desc = "Unknown"
	}
	return []Field{
		{Name: "Reserved", Bits: "7", Value: bit(v, 7), Description: "Reserved"},
		{Name: "WD_RST", Bits: "6", Value: bit(v, 6),
			Description: pick(bit(v, 6), "Reset (Back to 0 after timer reset)", "Normal")},
		{Name: "OTG_CONFIG", Bits: "5", Value: bit(v, 5),
			Description: pick(bit(v, 5), "OTG Enable", "OTG Disable (default)")},
		{Name: "CHG_CONFIG", Bits: "4", Value: bit(v, 4),
			Description: pick(bit(v, 4), "Charge Enable (default)", "Charge Disable")},
		{Name: "SYS_MIN", Bits: "[3:0]", Value: minVal,
			Description: fmt.Sprintf("Minimum System Voltage: %s", desc)},
	}
}

// decode02 covers the boost current limit and the fast charge current. The
// charge current scale is piecewise: 90mA steps up to code 13, then 57.5mA
// steps on top of 805mA.
func decode02(v uint8) []Field {
	ichg := bits(v, 5, 0)
	var ma float64
	if ichg <= 13 {
		ma = float64(ichg) * 90
	} else {
		ma = 805 + float64(ichg-14)*57.5
	}
	q1Desc := "Use higher Q1 Rdson when IINDPM<700mA (default, better accuracy)"
	if bit(v, 6) != 0 {
		q1Desc = "Use lower Q1 Rdson always (better efficiency)"
	}
	return []Field{
		{Name: "BOOST_LIM", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "1.2A (default)", "0.5A")},
		{Name: "Q1_FULLON", Bits: "6", Value: bit(v, 6), Description: q1Desc},
		{Name: "ICHG", Bits: "[5:0]", Value: ichg,
			Description: fmt.Sprintf("Fast Charge Current: %.1fmA", ma)},
	}
}

// decode03 covers the pre-charge and termination currents.
func decode03(v uint8) []Field {
	iprechg := bits(v, 7, 4)
	prechgMA := 52 + int(iprechg)*52
	if prechgMA > 676 {
		prechgMA = 676
	}
	iterm := bits(v, 3, 0)
	termMA := 60 + int(iterm)*60
	if termMA > 780 {
		termMA = 780
	}
	return []Field{
		{Name: "IPRECHG", Bits: "[7:4]", Value: iprechg,
			Description: fmt.Sprintf("Pre-charge Current: %dmA", prechgMA)},
		{Name: "ITERM", Bits: "[3:0]", Value: iterm,
			Description: fmt.Sprintf("Termination Current: %dmA", termMA)},
	}
}

// decode04 covers the charge voltage limit and the recharge threshold.
func decode04(v uint8) []Field {
	vreg := bits(v, 7, 3)
	volts := 3.856 + float64(vreg)*0.032
	if volts > 4.624 {
		volts = 4.624
	}
	return []Field{
		{Name: "VREG", Bits: "[7:3]", Value: vreg,
			Description: fmt.Sprintf("Charge Voltage: %.3fV", volts)},
		{Name: "Reserved", Bits: "2", Value: bit(v, 2), Description: "Reserved"},
		{Name: "Reserved", Bits: "1", Value: bit(v, 1), Description: "Reserved"},
		{Name: "VRECHG", Bits: "0", Value: bit(v, 0),
			Description: pick(bit(v, 0), "4.1V", "4.3V (default)")},
	}
}

// decode05 covers termination, the watchdog and safety timers, thermal
// regulation and JEITA low temperature current.
func decode05(v uint8) []Field {
	watchdog := map[uint8]string{
		0: "Disable watchdog timer",
		1: "40s (default)",
		2: "80s",
		3: "160s",
	}
	wd := bits(v, 5, 4)
	return []Field{
		{Name: "EN_TERM", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "Enable (default)", "Disable")},
		{Name: "Reserved", Bits: "6", Value: bit(v, 6), Description: "Reserved"},
		{Name: "WATCHDOG", Bits: "[5:4]", Value: wd, Description: watchdog[wd]},
		{Name: "EN_TIMER", Bits: "3", Value: bit(v, 3),
			Description: pick(bit(v, 3), "Enable (default)", "Disable")},
		{Name: "CHG_TIMER", Bits: "2", Value: bit(v, 2),
			Description: pick(bit(v, 2), "10hrs (default)", "5hrs")},
		{Name: "TREG", Bits: "1", Value: bit(v, 1),
			Description: pick(bit(v, 1), "120°C (default)", "100°C")},
		{Name: "JEITA_ISET", Bits: "0", Value: bit(v, 0),
			Description: pick(bit(v, 0), "20% of CC (default)", "50% of CC")},
	}
}

// decode06 covers input over-voltage protection, boost voltage and the
// input voltage DPM threshold.
func decode06(v uint8) []Field {
	ovp := map[uint8]string{
		0: "5.5V",
		1: "6.5V (5V input, default)",
		2: "10.5V (9V input)",
		3: "14V (12V input)",
	}
	ovpVal := bits(v, 7, 6)
	boostv := bits(v, 5, 4)
	boostVolts := 4.87 + float64(boostv)*0.128
	if boostVolts > 5.254 {
		boostVolts = 5.254
	}
	vindpm := bits(v, 3, 0)
	dpmVolts := 3.9 + float64(vindpm)*0.1
	if dpmVolts > 5.4 {
		dpmVolts = 5.4
	}
	return []Field{
		{Name: "OVP", Bits: "[7:6]", Value: ovpVal, Description: ovp[ovpVal]},
		{Name: "BOOSTV", Bits: "[5:4]", Value: boostv,
			Description: fmt.Sprintf("Boost Voltage: %.3fV", boostVolts)},
		{Name: "VINDPM", Bits: "[3:0]", Value: vindpm,
			Description: fmt.Sprintf("Input Voltage Limit: %.1fV", dpmVolts)},
	}
}

// decode07 covers detection forcing, BATFET control and VINDPM tracking.
func decode07(v uint8) []Field {
	track := map[uint8]string{
		0: "Disable tracking function (VINDPM is set by register)",
		1: "VBAT + 200mV",
		2: "VBAT + 250mV",
		3: "Reserved",
	}
	trackVal := bits(v, 1, 0)
	return []Field{
		{Name: "IINDET_EN", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "Force D+/D- detection", "Not in D+/D- detection (default)")},
		{Name: "TMR2X_EN", Bits: "6", Value: bit(v, 6),
			Description: pick(bit(v, 6), "Enable (default)", "Disable")},
		{Name: "BATFET_DIS", Bits: "5", Value: bit(v, 5),
			Description: pick(bit(v, 5), "Force BATFET off", "Allow BATFET turn on (default)")},
		{Name: "JEITA_VSET", Bits: "4", Value: bit(v, 4),
			Description: pick(bit(v, 4), "Set higher JEITA voltage at warm temperature", "Set lower JEITA voltage at warm temperature (default)")},
		{Name: "BATFET_DLY", Bits: "3", Value: bit(v, 3),
			Description: pick(bit(v, 3), "Turn off BATFET with tSM_DLY delay (default)", "Turn off BATFET immediately")},
		{Name: "BATFET_RST_EN", Bits: "2", Value: bit(v, 2),
			Description: pick(bit(v, 2), "Enable BATFET reset function (default)", "Disable BATFET reset function")},
		{Name: "VDPM_TRACK", Bits: "[1:0]", Value: trackVal, Description: track[trackVal]},
	}
}

// decode08 is the read-only system status register.
func decode08(v uint8) []Field {
	vbus := map[uint8]string{
		0: "No Input",
		1: "USB Host SDP (500mA)",
		2: "USB CDP (1.5A)",
		3: "USB DCP (2.4A)",
		5: "Unknown Adapter (500mA)",
		6: "Non-Standard Adapter (1A/2A/2.1A/2.4A)",
		7: "OTG",
	}
	chrg := map[uint8]string{
		0: "Not in Charging",
		1: "Pre-Charge (<VBATLOW)",
		2: "Fast Charge",
		3: "Charge Termination Done",
	}
	vbusVal := bits(v, 7, 5)
	vbusDesc, ok := vbus[vbusVal]
	if !ok {
		vbusDesc = "Unknown"
	}
	chrgVal := bits(v, 4, 3)
	return []Field{
		{Name: "VBUS_STAT", Bits: "[7:5]", Value: vbusVal, Description: vbusDesc},
		{Name: "CHRG_STAT", Bits: "[4:3]", Value: chrgVal, Description: chrg[chrgVal]},
		{Name: "PG_STAT", Bits: "2", Value: bit(v, 2),
			Description: pick(bit(v, 2), "Power Good", "Not Power Good")},
		{Name: "THERM_STAT", Bits: "1", Value: bit(v, 1),
			Description: pick(bit(v, 1), "In Thermal Regulation", "Normal")},
		{Name: "VSYS_STAT", Bits: "0", Value: bit(v, 0),
			Description: pick(bit(v, 0), "In VSYSMIN regulation (BAT<VSYSMIN)", "Not in VSYSMIN regulation (BAT>VSYSMIN)")},
	}
}

// decode09 is the read-only fault register.
func decode09(v uint8) []Field {
	return []Field{
		{Name: "FAULT_WDT", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "Watchdog Timer Expiration", "Normal")},
		{Name: "FAULT_BOOST", Bits: "6", Value: bit(v, 6),
			Description: pick(bit(v, 6), "Boost Mode Fault", "Normal")},
		{Name: "FAULT_CHRG", Bits: "5", Value: bit(v, 5),
			Description: pick(bit(v, 5), "Charge Fault", "Normal")},
		{Name: "FAULT_BAT", Bits: "4", Value: bit(v, 4),
			Description: pick(bit(v, 4), "Battery Fault", "Normal")},
		{Name: "FAULT_NTC", Bits: "3", Value: bit(v, 3),
			Description: pick(bit(v, 3), "NTC Fault", "Normal")},
		{Name: "Reserved", Bits: "[2:0]", Value: bits(v, 2, 0), Description: "Reserved"},
	}
}

// decode0A covers VBUS presence and the DPM status bits.
func decode0A(v uint8) []Field {
	return []Field{
		{Name: "VBUS_GD", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "VBUS Good", "VBUS not Good")},
		{Name: "VDPM_STAT", Bits: "6", Value: bit(v, 6),
			Description: pick(bit(v, 6), "In DPM Mode", "Not in DPM Mode")},
		{Name: "IDPM_STAT", Bits: "5", Value: bit(v, 5),
			Description: pick(bit(v, 5), "In DPM Mode", "Not in DPM Mode")},
		{Name: "Reserved", Bits: "4", Value: bit(v, 4), Description: "Reserved"},
		{Name: "Reserved", Bits: "3", Value: bit(v, 3), Description: "Reserved"},
		{Name: "ACOV_STAT", Bits: "2", Value: bit(v, 2),
			Description: pick(bit(v, 2), "ACOV (Input > VACOV)", "Normal")},
		{Name: "VINDPM_STAT", Bits: "1", Value: bit(v, 1),
			Description: pick(bit(v, 1), "In VINDPM Mode", "Not in VINDPM Mode")},
		{Name: "IINDPM_STAT", Bits: "0", Value: bit(v, 0),
			Description: pick(bit(v, 0), "In IINDPM Mode", "Not in IINDPM Mode")},
	}
}

// decode0B covers register reset, part number and device revision.
func decode0B(v uint8) []Field {
	return []Field{
		{Name: "REG_RST", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "Reset to default register value and reset safety timer", "Keep current register setting")},
		{Name: "PN", Bits: "[6:3]", Value: bits(v, 6, 3),
			Description: fmt.Sprintf("Part Number: 0x%X", bits(v, 6, 3))},
		{Name: "Reserved", Bits: "2", Value: bit(v, 2), Description: "Reserved"},
		{Name: "DEV_REV", Bits: "[1:0]", Value: bits(v, 1, 0),
			Description: fmt.Sprintf("Device Revision: 0x%X", bits(v, 1, 0))},
	}
}

// decode0C covers boost frequency and the boost thermal thresholds.
func decode0C(v uint8) []Field {
	bhot := map[uint8]string{
		0: "VBHOT1 Threshold (94.75%, 60°C)",
		1: "VBHOT2 Threshold (97.75%, 55°C)",
		2: "VBHOT3 Threshold (81.25%, 65°C) (default)",
		3: "Disable boost mode thermal protection",
	}
	bhotVal := bits(v, 5, 4)
	return []Field{
		{Name: "BOOST_FREQ", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "500kHz", "1.5MHz (default)")},
		{Name: "BCOLD", Bits: "6", Value: bit(v, 6),
			Description: pick(bit(v, 6), "VBCOLD2 Threshold (80%, -20°C) (default)", "VBCOLD1 Threshold (77%, -10°C)")},
		{Name: "BHOT", Bits: "[5:4]", Value: bhotVal, Description: bhot[bhotVal]},
		{Name: "Reserved", Bits: "[3:1]", Value: bits(v, 3, 1), Description: "Reserved"},
		{Name: "ICO_EN", Bits: "0", Value: bit(v, 0),
			Description: pick(bit(v, 0), "Enable Input Current Optimization", "Disable Optimization")},
	}
}

// decode0D covers input current optimization and its detected limit.
func decode0D(v uint8) []Field {
	idpm := bits(v, 5, 0)
	return []Field{
		{Name: "FORCE_ICO", Bits: "7", Value: bit(v, 7),
			Description: pick(bit(v, 7), "Force ICO (will back to 0 after ICO starts)", "Do not force ICO")},
		{Name: "ICO_OPTIMIZED", Bits: "6", Value: bit(v, 6),
			Description: pick(bit(v, 6), "Maximum Input Current Detected", "Optimization is in progress")},
		{Name: "IDPM_LIM", Bits: "[5:0]", Value: idpm,
			Description: fmt.Sprintf("Input Current Limit: %dmA", 100+int(idpm)*50)},
	}
}

// decode0E covers the fine charge voltage and the battery load enable.
func decode0E(v uint8) []Field {
	vreg := bits(v, 7, 2)
	volts := 3.856 + float64(vreg)*0.016
	if volts > 4.624 {
		volts = 4.624
	}
	return []Field{
		{Name: "VREG", Bits: "[7:2]", Value: vreg,
			Description: fmt.Sprintf("Charge Voltage: %.3fV", volts)},
		{Name: "VREG_FT", Bits: "1", Value: bit(v, 1),
			Description: pick(bit(v, 1), "VREG+8mV", "Disabled (default)")},
		{Name: "BAT_LOADEN", Bits: "0", Value: bit(v, 0),
			Description: pick(bit(v, 0), "Enable", "Disable (default)")},
	}
}
