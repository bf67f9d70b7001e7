/*
Package config manages publication parameters for rspub.

	            +-------------+
	            | Parameters  |
	            | (validated) |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |           |           |
	+-----+-----+ +---+----+ +----+----+
	|   YAML    | |  JSON  | |   HCL   |
	| Parser    | | Parser | | Parser  |
	+-----------+ +--------+ +---------+

🎯 Purpose:
- Loads publication parameters from configuration files
- Validates directories, URL prefix and capacity bounds
- Derives document paths and URIs from the configured layout
- Supports multiple configuration formats

🔄 Flow:
1. Reads parameters from file
2. Parses format-specific syntax
3. Validates values and applies defaults
4. Hands validated parameters to the publisher

⚡ Key Responsibilities:
- Parameter parsing and validation
- Default value management
- URL prefix normalization
- Path and URI derivation

🤝 Interfaces:
- Parser: format-specific parsing, selected by file name

📝 Design Philosophy:
The config package is the source of truth for the publication layout.
Every path and URI used elsewhere is derived here, so the mapping
between the local file tree and the published URL space lives in one
place. Parameters that fail validation never reach a run.
*/
package config
