package utils

import (
	"strconv"

	"github.com/mitchellh/hashstructure/v2"
)

var hashOptions = &hashstructure.HashOptions{SlicesAsSets: false}

func HashAny(value interface{}) (uint64, error) {
	hash, err := hashstructure.Hash(value, hashstructure.FormatV2, hashOptions)
	if err != nil {
		return 0, err
	}

	return hash, nil
}

// HashAnyString returns HashAny result formatted as decimal string
func HashAnyString(value interface{}) (string, error) {
	h, err := HashAny(value)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(h, 10), nil
}
