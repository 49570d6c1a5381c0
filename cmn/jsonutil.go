/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import jsoniter "github.com/json-iterator/go"

// JSON is the codec used for every wire payload and config file in the
// system (§4.3, §6). A single configured instance is reused everywhere
// instead of calling jsoniter.Marshal/Unmarshal directly, mirroring the
// teacher's practice of centralizing the jsoniter config in one place
// (cmn/jsp) rather than sprinkling ConfigCompatibleWithStandardLibrary
// across call sites.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

func MustMarshal(v interface{}) []byte {
	b, err := JSON.Marshal(v)
	if err != nil {
		panic("cmn: marshal: " + err.Error())
	}
	return b
}
