// This file is part of mcc - https://github.com/db47h/mcc
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// osFileOpener is the concrete cpp.FileOpener backing this command line
// driver: cpp only ever consumes the interface (spec.md §1), so the
// actual os.ReadFile call lives here rather than in the package.
type osFileOpener struct{}

func (osFileOpener) Open(name string) (contents []byte, dir string, err error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, "", errors.Wrapf(err, "open %s", name)
	}
	return b, filepath.Dir(name), nil
}
