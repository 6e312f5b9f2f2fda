// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// Command registers
const (
	memoryAddrMode      byte = 0x20
	columnAddress       byte = 0x21
	pageAddress         byte = 0x22
	contrastControl     byte = 0x81
	chargePumpRegulator byte = 0x8D
	segmentRemap127     byte = 0xA1
	displayOff          byte = 0xAE
	displayOn           byte = 0xAF
	scanDirectionN10    byte = 0xC8
	clockDivideRatio    byte = 0xD5
	hardwareConfig      byte = 0xDA
)

// Register parameter values
const (
	horizontalAddressing byte = 0x00
	contrastHighest      byte = 0xFF
	chargePumpEnable     byte = 0x14
	pinConfigAlternative byte = 0x12
	comRemapDisable      byte = 0x00
	clockFreqMid         byte = 0x80
	clockDivideBy1       byte = 0x00
)

// nbInitRegisters is the number of registers programmed at initialisation.
const nbInitRegisters = 8

type initEntry struct {
	reg          byte
	nbParameters uint8
	value        byte
}

// initSequence is applied in order by Init. The order is the programming
// order mandated by the datasheet (p. 64, application example); registers
// keeping their reset value are not touched.
var initSequence = [nbInitRegisters]initEntry{
	{scanDirectionN10, 0, 0x00},
	{hardwareConfig, 1, pinConfigAlternative | comRemapDisable},
	{segmentRemap127, 0, 0x00},
	{memoryAddrMode, 1, horizontalAddressing},
	{contrastControl, 1, contrastHighest},
	{clockDivideRatio, 1, clockFreqMid | clockDivideBy1},
	{chargePumpRegulator, 1, chargePumpEnable},
	{displayOn, 0, 0x00},
}
