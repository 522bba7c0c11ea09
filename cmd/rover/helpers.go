package main

import (
	"fmt"
	"strconv"
)

func parseFloatArg(args []string, index int, valueName string) (float64, error) {
	if index >= len(args) {
		return 0, fmt.Errorf("missing %s argument", valueName)
	}

	value, err := strconv.ParseFloat(args[index], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}
