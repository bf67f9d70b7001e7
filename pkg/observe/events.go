// Copyright 2025 EHRI
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

package observe

import (
	"github.com/google/uuid"

	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/sitemap"
)

// 🔔 Kind identifies the event being delivered
type Kind int

const (
	KindUnknown Kind = iota

	// low-level scan events
	KindStartFileSearch
	KindCreatedResource
	KindRejectedFile

	// document events
	KindCompletedDocument

	// run-level events
	KindFoundChanges
	KindExecutionStart
	KindExecutionEnd

	// guarded mutations
	KindClearMetadataDirectory

	// transport events
	KindTransportStart
	KindTransportEnd
	KindCopiedFile
	KindFileNotFound
	KindZipCreated

	// audit events
	KindAuditStart
	KindAuditEnd
	KindCheckURI
	KindURIVerified
)

// String returns the event name.
func (k Kind) String() string {
	switch k {
	case KindStartFileSearch:
		return "start_file_search"
	case KindCreatedResource:
		return "created_resource"
	case KindRejectedFile:
		return "rejected_file"
	case KindCompletedDocument:
		return "completed_document"
	case KindFoundChanges:
		return "found_changes"
	case KindExecutionStart:
		return "execution_start"
	case KindExecutionEnd:
		return "execution_end"
	case KindClearMetadataDirectory:
		return "clear_metadata_directory"
	case KindTransportStart:
		return "transport_start"
	case KindTransportEnd:
		return "transport_end"
	case KindCopiedFile:
		return "copied_file"
	case KindFileNotFound:
		return "file_not_found"
	case KindZipCreated:
		return "zip_created"
	case KindAuditStart:
		return "audit_start"
	case KindAuditEnd:
		return "audit_end"
	case KindCheckURI:
		return "check_uri"
	case KindURIVerified:
		return "uri_verified"
	default:
		return "unknown"
	}
}

// 📊 ChangeCounts summarizes one reconciliation
type ChangeCounts struct {
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
}

// Total is the number of resources that will enter new documents.
func (c ChangeCounts) Total() int {
	return c.Created + c.Updated + c.Deleted
}

// 📨 Event is one observation delivered to observers. Fields beyond
// Kind and RunID are filled depending on the kind.
type Event struct {
	Kind  Kind
	RunID uuid.UUID

	Path       string              // file or directory involved
	URI        string              // remote address involved
	Strategy   string              // execution_start
	Count      int                 // running counter, or the total on *_end events
	Resource   *resource.Resource  // created_resource
	Descriptor *sitemap.Descriptor // completed_document
	Counts     *ChangeCounts       // found_changes, execution_end
	Err        error               // uri_verified failures
}
