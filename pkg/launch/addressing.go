// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launch

import "fmt"

// DefaultPort is the port training tasks listen on when none is configured.
const DefaultPort = 8000

// ServiceDNS addresses tasks through registry DNS records of the form
// <role>-<index>.<service>.<user>.<domain>:<port>.
type ServiceDNS struct {
	Service string
	User    string
	Domain  string
	Port    int
}

// Endpoint implements AddressFunc.
func (s ServiceDNS) Endpoint(role TaskRole, index int) string {
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	host := fmt.Sprintf("%s-%d", role, index)
	for _, label := range []string{s.Service, s.User, s.Domain} {
		if label != "" {
			host += "." + label
		}
	}
	return fmt.Sprintf("%s:%d", host, port)
}
