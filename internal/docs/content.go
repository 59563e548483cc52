package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Generating your first tutorial",
		Content: topicQuickstart,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "The .tutor.yaml schema, fields, and defaults",
		Content: topicConfig,
	},
	{
		Name:    "pipeline",
		Title:   "Pipeline Stages",
		Summary: "The six stages, retries, checkpoints, and resuming",
		Content: topicPipeline,
	},
	{
		Name:    "providers",
		Title:   "Model Providers",
		Summary: "Gemini, Ollama, OpenAI-compatible, and scripted models",
		Content: topicProviders,
	},
	{
		Name:    "output",
		Title:   "Output and Artifacts",
		Summary: "Tutorial files, the .tutor/ directory, and S3 publishing",
		Content: topicOutput,
	},
}

const topicQuickstart = `
QUICK START
===========

tutor reads a codebase and writes a beginner-friendly tutorial about it:
an index.md with a relationship diagram plus one Markdown chapter per core
abstraction.

1. Create a config file in the current directory:

     tutor init

   This writes .tutor.yaml. Edit it to point at your code, or skip the file
   and pass flags instead.

2. Provide an API key. For the default Gemini provider:

     export GEMINI_API_KEY=...

   A .env file in the working directory is loaded automatically.

3. Generate a tutorial for a local directory or a GitHub repository:

     tutor run --dir ./myproject
     tutor run --repo https://github.com/owner/repo

4. Open the result:

     output/<project>/index.md

If a run fails, "tutor status" shows where it stopped, "tutor doctor" asks the
model what went wrong, and "tutor run --retry N" resumes at stage N.
`

const topicConfig = `
CONFIGURATION REFERENCE
=======================

tutor looks for .tutor.yaml in the current directory and its parents. Every
field is optional; command-line flags override file values.

  name: myproject              # project name; derived from repo or dir if empty
  repo: https://github.com/owner/repo   # exactly one of repo / dir
  dir: ./src
  output: output               # tutorial goes to <output>/<name>/

  include: ["*.go", "*.py"]    # doublestar patterns; a pattern without "/"
  exclude: ["**/testdata/**"]  # also matches base names at any depth
  max-file-size: 100000        # bytes; larger files are skipped
  max-abstractions: 10
  github-token-env: GITHUB_TOKEN

  llm:
    provider: gemini           # gemini | ollama | openai | script
    model: gemini-2.5-flash
    base-url: ""               # ollama / openai endpoints
    api-key-env: GEMINI_API_KEY
    script: ""                 # responses file for provider: script
    rps: 0                     # requests per second; 0 disables limiting
    burst: 1
    retries: 3                 # attempts per model call
    timeout: 300               # seconds per model call
    cache:
      enabled: true
      dir: .tutor-cache
      size: 1024               # in-memory entries

  pipeline:
    retries: 2                 # extra stage attempts after an invalid answer (default 0)
    retry-wait: 5              # seconds between stage attempts (default 0)
    strict-relationships: false

  publish:
    s3:
      endpoint: localhost:9000
      region: us-east-1
      bucket: tutorials
      prefix: docs
      access-key-env: S3_ACCESS_KEY
      secret-key-env: S3_SECRET_KEY
      use-ssl: true

Secrets are never stored in the file; the *-env fields name the
environment variables that hold them.
`

const topicPipeline = `
PIPELINE STAGES
===============

A run executes six stages in order. Each reads what earlier stages produced.

  1. fetch     Read source files matching include/exclude, up to max-file-size.
  2. identify  Ask the model for 5-N core abstractions, each tied to file indices.
  3. relate    Ask for a project summary and labeled relationships between
               abstractions.
  4. order     Ask for the teaching order: a permutation of all abstractions.
  5. write     Write one chapter per abstraction, in order. Each chapter's
               prompt includes every earlier chapter.
  6. combine   Build index.md with a Mermaid diagram and chapter links, add the
               attribution footer, and publish.

Model answers for identify, relate, and order must contain a fenced yaml
block. Answers are validated strictly: indices must be in range, the order
must contain every abstraction exactly once. A failed validation retries the
stage up to pipeline.retries times, bypassing the response cache.

When strict-relationships is false, abstractions that take part in no
relationship only produce a warning.

CHECKPOINTS AND RESUMING

Each completed stage saves its result under .tutor/checkpoints/. Chapters are
saved one by one while the write stage runs.

  tutor run                 continue an unfinished run where it stopped
  tutor run --retry N       resume at stage N, reusing partial chapters
  tutor run --from N        re-run from stage N, discarding partial chapters
  tutor run --dry-run       print the stage plan without calling the model

Nothing is written to the output directory until combine completes.
`

const topicProviders = `
MODEL PROVIDERS
===============

gemini (default)
  Uses the Gemini API. Key from GEMINI_API_KEY (or llm.api-key-env).
  Default model gemini-2.5-flash.

ollama
  Local models through an Ollama server.
  Default base-url http://localhost:11434, model llama3.1.

openai
  Any OpenAI-compatible chat completions endpoint.
  Default base-url https://api.openai.com/v1, key from OPENAI_API_KEY.

script
  Replays canned responses from a YAML file, for offline runs and tests:

    responses:
      - match: "Identify up to"
        response: |
          ...
      - response: "an unmatched entry is handed out in order"

MIDDLEWARE

Every provider is wrapped with logging, a response cache, retries with
exponential backoff, rate limiting, and a per-call timeout. Client errors
other than 408 and 429 are not retried. The cache is keyed on model and
prompt and lives in llm.cache.dir; disable it with --no-cache.

Set TUTOR_LOG_LEVEL=debug|info|warn|error to see structured logs of model
traffic on stderr.
`

const topicOutput = `
OUTPUT AND ARTIFACTS
====================

The finished tutorial is written to <output>/<project>/:

  index.md          title, summary, source link, Mermaid diagram, chapter list
  01_<name>.md      one file per chapter, in teaching order
  02_<name>.md
  ...

Chapter file names are the abstraction name lowercased with every character
other than letters and digits replaced by "_".

Run state lives next to it in <output>/<project>/.tutor/:

  state.json                 run ID, current stage, status, last error
  timing.json                start and end time of every stage attempt
  checkpoints/<stage>.json   result of each completed stage
  checkpoints/chapters/NN.md chapters written so far
  prompts/<stage>[-NN].md    the prompt sent for each model call
  responses/<stage>[-NN].md  the raw model answer

S3 PUBLISHING

With publish.s3 configured, the tutorial is also uploaded to
s3://<bucket>/<prefix>/<project>/ on any S3-compatible store. The bucket is
created if missing. Credentials come from the variables named by
access-key-env and secret-key-env.
`
