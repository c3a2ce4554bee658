package kiln

// LegalNotice provides license notices for Kiln itself and any third-party
// dependencies linked into the CLI binary.
const LegalNotice = `Kiln

Licensed under the terms of the MIT License.


================================================================================
Kiln depends on the following third-party software:
================================================================================

Go and the Go standard library.
https://golang.org/
Copyright (c) 2009 The Go Authors. All rights reserved.
Used under the terms of the 3-Clause BSD License.

github.com/bmatcuk/doublestar
Copyright (c) 2014 Bob Matcuk
Used under the terms of the MIT License.

github.com/dustin/go-humanize
Copyright (c) 2005-2008 Dustin Sallings
Used under the terms of the MIT License.

github.com/eknkc/basex
Used under the terms of the MIT License.

github.com/fatih/color
Copyright (c) 2013 Fatih Arslan
Used under the terms of the MIT License.

github.com/golang/groupcache
Copyright 2013 Google Inc.
Used under the terms of the Apache License, Version 2.0.

github.com/google/uuid
Copyright (c) 2009, 2014 Google Inc. All rights reserved.
Used under the terms of the 3-Clause BSD License.

github.com/joho/godotenv
Used under the terms of the MIT License.

github.com/mattn/go-isatty
Copyright (c) Yasuhiro MATSUMOTO
Used under the terms of the MIT License.

github.com/pkg/errors
Copyright (c) 2015, Dave Cheney <dave@cheney.net>
Used under the terms of the 2-Clause BSD License.

github.com/spf13/cobra and github.com/spf13/pflag
Copyright 2013 Steve Francia
Used under the terms of the Apache License, Version 2.0.

github.com/stretchr/testify
Copyright (c) 2012-2020 Mat Ryer and Tyler Bunnell
Used under the terms of the MIT License.

golang.org/x/text
Copyright (c) 2009 The Go Authors. All rights reserved.
Used under the terms of the 3-Clause BSD License.

gopkg.in/yaml.v3
Used under the terms of the MIT and Apache 2.0 Licenses.
`
